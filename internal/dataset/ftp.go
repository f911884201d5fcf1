package dataset

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ftpTimeout bounds the control-connection dial. EOG mirrors are slow but
// a stuck dial should not hang a scan.
const ftpTimeout = 30 * time.Second

func fetchRasterFTP(ctx context.Context, rawURL, destDir string) (string, error) {
	host, path, err := parseFTPURL(rawURL)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "dataset: create dest dir")
	}
	dest := filepath.Join(destDir, filepath.Base(path))
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		zap.L().Debug("dataset: ftp raster cached", zap.String("path", dest))
		return dest, nil
	}

	zap.L().Info("dataset: downloading raster over ftp",
		zap.String("host", host),
		zap.String("path", path),
	)

	rc, err := openFTP(ctx, host, path)
	if err != nil {
		return "", err
	}
	defer rc.Close() //nolint:errcheck

	f, err := os.Create(dest)
	if err != nil {
		return "", eris.Wrap(err, "dataset: create raster file")
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(f, rc); err != nil {
		return "", eris.Wrap(err, "dataset: write raster")
	}
	return dest, nil
}

func parseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "dataset: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("dataset: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", eris.New("dataset: empty path in ftp url")
	}
	return host, path, nil
}

// ftpConnReader ties the data stream's lifetime to the control connection.
type ftpConnReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "dataset: close ftp response")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "dataset: quit ftp connection")
	}
	return nil
}

func openFTP(ctx context.Context, host, path string) (io.ReadCloser, error) {
	conn, err := ftp.Dial(host, ftp.DialWithTimeout(ftpTimeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "dataset: ftp dial")
	}

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		conn.Quit() //nolint:errcheck
		return nil, eris.Wrap(err, "dataset: ftp login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		conn.Quit() //nolint:errcheck
		return nil, eris.Wrap(err, "dataset: ftp retrieve")
	}
	return &ftpConnReader{resp: resp, conn: conn}, nil
}
