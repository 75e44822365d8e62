package policy

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// MaxPolicySize is the largest policy file that will be read, in bytes.
const MaxPolicySize = 1_000_000

// Integrity failures.
var (
	ErrNotFound          = errors.New("policy file not found")
	ErrSymlink           = errors.New("policy file is a symlink")
	ErrNotRegular        = errors.New("policy file is not a regular file")
	ErrUnsafePermissions = errors.New("policy file has unsafe permissions (group or world writable)")
	ErrTooLarge          = errors.New("policy file too large")
	ErrReplaced          = errors.New("policy file changed during validation")
)

// IntegrityError reports why a policy file was not trusted.
type IntegrityError struct {
	Path   string
	Err    error
	Detail string
}

func (e *IntegrityError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Path, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// ValidateFile checks that path is a regular, non-symlinked file without group
// or world write permission and no larger than MaxPolicySize.
func ValidateFile(path string) error {
	_, err := validate(path)
	return err
}

func validate(path string) (fs.FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &IntegrityError{Path: path, Err: ErrNotFound}
		}
		return nil, fmt.Errorf("stat policy %s: %w", path, err)
	}

	mode := info.Mode()
	switch {
	case mode&fs.ModeSymlink != 0:
		return nil, &IntegrityError{Path: path, Err: ErrSymlink}
	case !mode.IsRegular():
		return nil, &IntegrityError{Path: path, Err: ErrNotRegular, Detail: mode.Type().String()}
	case mode.Perm()&0o022 != 0:
		return nil, &IntegrityError{Path: path, Err: ErrUnsafePermissions, Detail: fmt.Sprintf("mode %#o", mode.Perm())}
	case info.Size() > MaxPolicySize:
		return nil, &IntegrityError{
			Path:   path,
			Err:    ErrTooLarge,
			Detail: fmt.Sprintf("%d > %d bytes", info.Size(), MaxPolicySize),
		}
	}
	return info, nil
}

// readValidated validates path and returns its contents. The open file must be
// the one that was validated and the read is capped at MaxPolicySize.
func readValidated(path string) ([]byte, error) {
	info, err := validate(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open policy %s: %w", path, err)
	}
	defer f.Close()

	opened, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat policy %s: %w", path, err)
	}
	if !os.SameFile(info, opened) {
		return nil, &IntegrityError{Path: path, Err: ErrReplaced}
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxPolicySize+1))
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	if len(data) > MaxPolicySize {
		return nil, &IntegrityError{Path: path, Err: ErrTooLarge, Detail: "grew while reading"}
	}
	return data, nil
}

// LoadFile validates, reads and parses the policy at path.
func LoadFile(path string) (Policy, error) {
	data, err := readValidated(path)
	if err != nil {
		return Policy{}, err
	}
	p, err := Parse(data)
	if err != nil {
		return Policy{}, fmt.Errorf("parse policy %s: %w", path, err)
	}
	return p, nil
}
