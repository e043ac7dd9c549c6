package destination

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/config"
)

var _ DestinationProvider = (*FTPDestination)(nil)

// ftpConn is the subset of *ftp.ServerConn used for uploads
type ftpConn interface {
	Stor(path string, r io.Reader) error
	MakeDir(path string) error
	ChangeDir(path string) error
	CurrentDir() (string, error)
	Quit() error
}

// FTPDestination implements DestinationProvider for FTP servers.
// Reports are small and rare, so every upload uses its own connection.
type FTPDestination struct {
	config     *config.FTPConfig
	timeout    time.Duration
	maxRetries int
	dial       func(ctx context.Context) (ftpConn, error)
	newBackOff func() backoff.BackOff
}

// NewFTPDestination creates a new FTP destination
func NewFTPDestination(cfg *config.FTPConfig, report *config.ReportConfig) (*FTPDestination, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ftp configuration is required")
	}
	cfg.ApplyDefaults()
	report.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ftp config: %w", err)
	}

	dest := &FTPDestination{
		config:     cfg,
		timeout:    time.Duration(report.TimeoutSeconds) * time.Second,
		maxRetries: report.MaxRetries,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 400 * time.Millisecond
			return bo
		},
	}
	dest.dial = dest.createConnection
	return dest, nil
}

// createConnection dials and logs in
func (f *FTPDestination) createConnection(ctx context.Context) (ftpConn, error) {
	addr := fmt.Sprintf("%s:%d", f.config.Host, f.config.Port)

	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(f.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	if err := conn.Login(f.config.Username, f.config.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	return conn, nil
}

// Upload stores content under the base path, creating missing directories
func (f *FTPDestination) Upload(ctx context.Context, filePath string, content io.Reader) error {
	fullPath := path.Join(f.config.BasePath, filePath)

	// buffered so every attempt sends the full content
	data, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("reading upload content: %w", err)
	}

	attempts := f.maxRetries
	if attempts <= 0 {
		attempts = 1
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(f.newBackOff(), uint64(attempts-1)), ctx)

	err = backoff.Retry(func() error {
		conn, err := f.dial(ctx)
		if err != nil {
			return err
		}
		defer conn.Quit()

		dir := path.Dir(fullPath)
		if dir != "/" && dir != "." {
			if err := ensureDirectory(conn, dir); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}

		if err := conn.Stor(fullPath, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("failed to upload %s: %w", fullPath, err)
		}
		return nil
	}, bo)
	if err != nil {
		return fmt.Errorf("upload failed after %d attempts: %w", attempts, err)
	}
	return nil
}

// ensureDirectory creates directory structure recursively
func ensureDirectory(conn ftpConn, dirPath string) error {
	dirPath = path.Clean(dirPath)
	if dirPath == "/" || dirPath == "." {
		return nil
	}

	currentDir, err := conn.CurrentDir()
	if err != nil {
		return err
	}

	if err := conn.ChangeDir(dirPath); err == nil {
		return conn.ChangeDir(currentDir)
	}

	currentPath := ""
	if strings.HasPrefix(dirPath, "/") {
		currentPath = "/"
	}
	for _, part := range strings.Split(dirPath, "/") {
		if part == "" {
			continue
		}
		currentPath = path.Join(currentPath, part)

		// ignore "already exists"
		_ = conn.MakeDir(currentPath)
	}

	return conn.ChangeDir(currentDir)
}

// Close is a no-op: connections are closed after each upload
func (f *FTPDestination) Close() error {
	return nil
}
