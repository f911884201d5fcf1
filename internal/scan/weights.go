package scan

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LoadSurveyWeights reads a YAML map of location name to perception
// multiplier. Weights come from student safety surveys; locations absent
// from the file scan at weight 1.0.
func LoadSurveyWeights(path string) (map[string]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scan: read survey weights %s", path)
	}

	weights := make(map[string]float64)
	if err := yaml.Unmarshal(raw, &weights); err != nil {
		return nil, eris.Wrapf(err, "scan: parse survey weights %s", path)
	}

	kept := make(map[string]float64, len(weights))
	for name, w := range weights {
		if w <= 0 {
			zap.L().Warn("scan: dropping non-positive survey weight",
				zap.String("location", name),
				zap.Float64("weight", w),
			)
			continue
		}
		kept[name] = w
	}
	return kept, nil
}
