package earthengine

import (
	"errors"
	"time"
)

// Settings configures Open.
type Settings struct {
	BaseURL         string
	Project         string
	AccessToken     string
	CredentialsFile string
	Timeout         time.Duration
}

// Open builds an Engine from settings. A credentials file takes precedence
// over a fixed access token; its project_id fills in a missing Project.
func Open(s Settings) (*Engine, error) {
	var tokens TokenSource
	switch {
	case s.CredentialsFile != "":
		sa, err := LoadServiceAccount(s.CredentialsFile)
		if err != nil {
			return nil, err
		}
		src, err := NewServiceAccountSource(sa)
		if err != nil {
			return nil, err
		}
		tokens = src
		if s.Project == "" {
			s.Project = sa.ProjectID
		}
	case s.AccessToken != "":
		tokens = StaticToken(s.AccessToken)
	default:
		return nil, errors.New("earthengine: no credentials configured")
	}

	if s.Project == "" {
		return nil, errors.New("earthengine: project is required")
	}

	return NewEngine(NewClient(ClientOptions{
		BaseURL: s.BaseURL,
		Project: s.Project,
		Tokens:  tokens,
		Timeout: s.Timeout,
	})), nil
}
