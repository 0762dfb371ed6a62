// Package seed supplies the fallback collection used when nothing has been
// persisted yet.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/spec-kit/employee-directory/internal/config"
	"github.com/spec-kit/employee-directory/internal/domain"
)

// Source produces the seed collection.
type Source interface {
	Load(ctx context.Context) ([]domain.Employee, error)
	Name() string
}

// New picks a source from configuration: URL, then file, then the built-in list.
func New(cfg config.SeedConfig) Source {
	switch {
	case cfg.URL != "":
		return NewHTTPSource(cfg.URL, cfg.Timeout())
	case cfg.Path != "":
		return NewFileSource(cfg.Path)
	default:
		return NewStaticSource(Defaults())
	}
}

// Defaults is the built-in seed list.
func Defaults() []domain.Employee {
	return []domain.Employee{
		{Name: "Alice Johnson", Department: "Engineering", Role: "Backend Developer"},
		{Name: "Brian Smith", Department: "Marketing", Role: "Content Strategist"},
		{Name: "Carla Gomez", Department: "Sales", Role: "Account Executive"},
		{Name: "David Lee", Department: "Engineering", Role: "Frontend Developer"},
		{Name: "Emma Brown", Department: "Human Resources", Role: "Recruiter"},
	}
}

// StaticSource returns a fixed list.
type StaticSource struct {
	employees []domain.Employee
}

// NewStaticSource wraps employees as a Source.
func NewStaticSource(employees []domain.Employee) *StaticSource {
	return &StaticSource{employees: employees}
}

func (s *StaticSource) Load(ctx context.Context) ([]domain.Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]domain.Employee(nil), s.employees...), nil
}

func (s *StaticSource) Name() string { return "static" }

// FileSource reads a JSON array from disk.
type FileSource struct {
	path string
}

// NewFileSource reads the seed from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Load(ctx context.Context) ([]domain.Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", s.path, err)
	}
	return decode(raw)
}

func (s *FileSource) Name() string { return "file:" + s.path }

// HTTPSource fetches the seed document over HTTP.
type HTTPSource struct {
	url    string
	client *resty.Client
}

// NewHTTPSource fetches from url. A zero timeout leaves the request bounded only by ctx.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	client := resty.New().SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTPSource{url: url, client: client}
}

func (s *HTTPSource) Load(ctx context.Context) ([]domain.Employee, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch seed %s: %w", s.url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch seed %s: unexpected status %d", s.url, resp.StatusCode())
	}
	return decode(resp.Body())
}

func (s *HTTPSource) Name() string { return "http:" + s.url }

func decode(raw []byte) ([]domain.Employee, error) {
	var employees []domain.Employee
	if err := json.Unmarshal(raw, &employees); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if employees == nil {
		return nil, errors.New("decode seed: document is null")
	}
	return employees, nil
}
