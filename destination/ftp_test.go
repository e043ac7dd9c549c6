package destination

import (
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/config"
)

// fakeFTPConn records commands against an in-memory directory tree
type fakeFTPConn struct {
	server *fakeFTPServer
	cwd    string
}

type fakeFTPServer struct {
	dirs     map[string]bool
	files    map[string]string
	storErrs int // number of Stor calls that fail before succeeding
	dials    int
	quits    int
	made     []string
}

func newFakeFTPServer() *fakeFTPServer {
	return &fakeFTPServer{dirs: map[string]bool{"/": true}, files: map[string]string{}}
}

func (s *fakeFTPServer) dial(ctx context.Context) (ftpConn, error) {
	s.dials++
	return &fakeFTPConn{server: s, cwd: "/"}, nil
}

func (c *fakeFTPConn) Stor(p string, r io.Reader) error {
	if c.server.storErrs > 0 {
		c.server.storErrs--
		return errors.New("426 connection closed; transfer aborted")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	c.server.files[p] = string(data)
	return nil
}

func (c *fakeFTPConn) MakeDir(p string) error {
	if c.server.dirs[p] {
		return errors.New("550 already exists")
	}
	c.server.dirs[p] = true
	c.server.made = append(c.server.made, p)
	return nil
}

func (c *fakeFTPConn) ChangeDir(p string) error {
	if !c.server.dirs[p] {
		return errors.New("550 no such directory")
	}
	c.cwd = p
	return nil
}

func (c *fakeFTPConn) CurrentDir() (string, error) { return c.cwd, nil }

func (c *fakeFTPConn) Quit() error {
	c.server.quits++
	return nil
}

func newTestFTPDestination(t *testing.T, srv *fakeFTPServer, basePath string) *FTPDestination {
	t.Helper()
	dest, err := NewFTPDestination(
		&config.FTPConfig{Host: "ftp.example.com", Username: "reports", BasePath: basePath},
		&config.ReportConfig{DestinationType: config.DestinationTypeFTP, MaxRetries: 3},
	)
	require.NoError(t, err)
	dest.dial = srv.dial
	dest.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return dest
}

func TestNewFTPDestination_InvalidConfig(t *testing.T) {
	tests := []struct {
		name         string
		ftpCfg       *config.FTPConfig
		errorMessage string
	}{
		{name: "missing host", ftpCfg: &config.FTPConfig{Username: "user"}, errorMessage: "host"},
		{name: "missing username", ftpCfg: &config.FTPConfig{Host: "localhost"}, errorMessage: "username"},
		{name: "invalid port", ftpCfg: &config.FTPConfig{Host: "localhost", Username: "user", Port: 70000}, errorMessage: "port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFTPDestination(tt.ftpCfg, &config.ReportConfig{})
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errorMessage)
		})
	}
}

func TestNewFTPDestination_Defaults(t *testing.T) {
	cfg := &config.FTPConfig{Host: "localhost", Username: "user"}
	dest, err := NewFTPDestination(cfg, &config.ReportConfig{})
	require.NoError(t, err)
	require.Equal(t, 21, cfg.Port)
	require.Equal(t, "/", cfg.BasePath)
	require.Equal(t, 3, dest.maxRetries)
	require.Equal(t, 30*time.Second, dest.timeout)
}

func TestFTPUpload_CreatesDirectories(t *testing.T) {
	srv := newFakeFTPServer()
	dest := newTestFTPDestination(t, srv, "/reports")

	err := dest.Upload(context.Background(), "Fabrikam/cleanup-20261019T120000Z.json", strings.NewReader(`{"deleted":7}`))
	require.NoError(t, err)

	require.Equal(t, `{"deleted":7}`, srv.files["/reports/Fabrikam/cleanup-20261019T120000Z.json"])
	require.Equal(t, []string{"/reports", "/reports/Fabrikam"}, srv.made)
	require.Equal(t, 1, srv.dials)
	require.Equal(t, 1, srv.quits, "connection is closed after the upload")
}

func TestFTPUpload_ExistingDirectory(t *testing.T) {
	srv := newFakeFTPServer()
	srv.dirs["/Fabrikam"] = true
	dest := newTestFTPDestination(t, srv, "/")

	require.NoError(t, dest.Upload(context.Background(), "Fabrikam/r.json", strings.NewReader("{}")))
	require.Empty(t, srv.made)
	require.Contains(t, srv.files, "/Fabrikam/r.json")
}

func TestFTPUpload_RetriesWithFullContent(t *testing.T) {
	srv := newFakeFTPServer()
	srv.storErrs = 2
	dest := newTestFTPDestination(t, srv, "/")

	require.NoError(t, dest.Upload(context.Background(), "r.json", strings.NewReader("payload")))
	require.Equal(t, "payload", srv.files["/r.json"])
	require.Equal(t, 3, srv.dials)
	require.Equal(t, 3, srv.quits)
}

func TestFTPUpload_GivesUp(t *testing.T) {
	srv := newFakeFTPServer()
	srv.storErrs = 10
	dest := newTestFTPDestination(t, srv, "/")

	err := dest.Upload(context.Background(), "r.json", strings.NewReader("payload"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "after 3 attempts")
	require.Contains(t, err.Error(), "426")
	require.Equal(t, 3, srv.dials)
}

func TestFTPUpload_DialFailure(t *testing.T) {
	dest := newTestFTPDestination(t, newFakeFTPServer(), "/")
	dials := 0
	dest.dial = func(ctx context.Context) (ftpConn, error) {
		dials++
		return nil, errors.New("connection refused")
	}

	err := dest.Upload(context.Background(), "r.json", strings.NewReader("x"))
	require.ErrorContains(t, err, "connection refused")
	require.Equal(t, 3, dials)
}

// TestFTPUpload_Integration uploads to a real server when FTP_* variables are set
func TestFTPUpload_Integration(t *testing.T) {
	host := os.Getenv("FTP_HOST")
	username := os.Getenv("FTP_USERNAME")
	if host == "" || username == "" {
		t.Skip("FTP credentials not provided, skipping integration test")
	}

	cfg := &config.FTPConfig{Host: host, Username: username, Password: os.Getenv("FTP_PASSWORD")}
	if p, err := strconv.Atoi(os.Getenv("FTP_PORT")); err == nil {
		cfg.Port = p
	}

	dest, err := NewFTPDestination(cfg, &config.ReportConfig{})
	require.NoError(t, err)
	defer dest.Close()

	name := "tcclean-it/report-" + strconv.FormatInt(time.Now().UnixNano(), 10) + ".json"
	require.NoError(t, dest.Upload(context.Background(), name, strings.NewReader(`{"test":true}`)))
}
