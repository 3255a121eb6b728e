// Package artifact stores check screenshots on local disk and serves them back.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"pagewatch/pkg/apperror"

	"github.com/google/uuid"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9.-]+$`)

const Extension = ".png"

type Store struct {
	dir string
}

// NewStore creates dir if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// NameFor is the artifact name of a monitor's latest screenshot.
func NameFor(monitorID uuid.UUID) string {
	return "monitor-" + monitorID.String() + Extension
}

// ValidateName rejects anything that could escape the store directory or is
// not a png.
func ValidateName(name string) error {
	const op string = "artifact.validate_name"

	if !validName.MatchString(name) || strings.Contains(name, "..") {
		return apperror.Invalid(op, "Invalid file name")
	}
	if !strings.HasSuffix(strings.ToLower(name), Extension) {
		return apperror.Invalid(op, "Invalid file type")
	}
	return nil
}

// Save writes data atomically under name.
func (s *Store) Save(name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}

func (s *Store) Read(name string) ([]byte, error) {
	const op string = "artifact.read"

	if err := ValidateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &apperror.Error{Kind: apperror.NotFound, Op: op, Message: "File not found", Err: err}
	}
	if err != nil {
		return nil, apperror.New(apperror.Internal, op, err).WithMessage("internal server error")
	}
	return data, nil
}
