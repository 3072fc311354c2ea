package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/textproto"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTPConfig holds connection settings for the FTP blob store.
type FTPConfig struct {
	Addr     string `env:"FTP_ADDR" envDefault:"localhost:21"`
	User     string `env:"FTP_USER" envDefault:"anonymous"`
	Password string `env:"FTP_PASSWORD" envDefault:""`
	BaseDir  string `env:"FTP_BASE_DIR" envDefault:"/filedrop"`
}

// FTPStore is a BlobStore backed by an FTP server. FTP control connections
// are stateful and cheap to establish, so each operation dials its own
// connection rather than sharing one across goroutines.
type FTPStore struct {
	cfg    FTPConfig
	logger *slog.Logger
}

// NewFTPStore creates an FTP-backed blob store.
func NewFTPStore(cfg FTPConfig, logger *slog.Logger) *FTPStore {
	return &FTPStore{cfg: cfg, logger: logger}
}

func (s *FTPStore) connect(ctx context.Context) (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(s.cfg.Addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("dial ftp %s: %w", s.cfg.Addr, err)
	}
	if err := conn.Login(s.cfg.User, s.cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("ftp login: %w", err)
	}
	return conn, nil
}

func (s *FTPStore) fullPath(key string) string {
	return path.Join(s.cfg.BaseDir, key)
}

// Put streams a blob to the store, creating parent directories as needed.
func (s *FTPStore) Put(ctx context.Context, key string, r io.Reader) error {
	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Quit() }()

	full := s.fullPath(key)
	if err := s.ensureDirs(conn, path.Dir(full)); err != nil {
		return err
	}
	if err := conn.Stor(full, r); err != nil {
		return fmt.Errorf("ftp store %s: %w", key, err)
	}
	return nil
}

// Get opens the blob for reading. The returned reader is backed by the FTP
// data connection; closing it closes the control connection as well.
func (s *FTPStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	conn, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := conn.Retr(s.fullPath(key))
	if err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("ftp retrieve %s: %w", key, err)
	}

	return &ftpReadCloser{resp: resp, conn: conn}, nil
}

// Delete removes a blob. A missing key is not an error.
func (s *FTPStore) Delete(ctx context.Context, key string) error {
	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Quit() }()

	if err := conn.Delete(s.fullPath(key)); err != nil {
		if isFileUnavailable(err) {
			return nil
		}
		return fmt.Errorf("ftp delete %s: %w", key, err)
	}
	return nil
}

// Ping dials and authenticates to verify the store is reachable.
func (s *FTPStore) Ping(ctx context.Context) error {
	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Quit() }()
	return conn.NoOp()
}

// ensureDirs creates each path segment, ignoring already-exists replies.
func (s *FTPStore) ensureDirs(conn *ftp.ServerConn, dir string) error {
	if dir == "/" || dir == "." || dir == "" {
		return nil
	}
	segments := strings.Split(strings.Trim(dir, "/"), "/")
	current := ""
	for _, seg := range segments {
		current = current + "/" + seg
		if err := conn.MakeDir(current); err != nil && !isFileUnavailable(err) {
			s.logger.Debug("ftp mkdir", "dir", current, "error", err)
		}
	}
	return nil
}

// isFileUnavailable matches the 550 reply FTP servers use both for missing
// files and for directories that already exist.
func isFileUnavailable(err error) bool {
	var reply *textproto.Error
	if errors.As(err, &reply) {
		return reply.Code == ftp.StatusFileUnavailable
	}
	return strings.Contains(err.Error(), "550")
}

type ftpReadCloser struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (rc *ftpReadCloser) Read(p []byte) (int, error) {
	return rc.resp.Read(p)
}

func (rc *ftpReadCloser) Close() error {
	err := rc.resp.Close()
	if qerr := rc.conn.Quit(); err == nil {
		err = qerr
	}
	return err
}
