package config

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cases := map[string]struct {
		contents string
		wantErr  bool
		check    func(t *testing.T, cfg *Configuration)
	}{
		"empty file keeps defaults": {
			contents: "",
			check: func(t *testing.T, cfg *Configuration) {
				assert.Equal(t, defaultConfig(), withoutLocation(cfg))
			},
		},
		"overrides": {
			contents: "prompt: \"$ \"\nmax_jobs: 5\ncolor: never\n",
			check: func(t *testing.T, cfg *Configuration) {
				assert.Equal(t, "$ ", cfg.Prompt)
				assert.Equal(t, 5, cfg.MaxJobs)
				assert.Equal(t, "never", cfg.Color)
				assert.Equal(t, defaultConfig().HistoryLimit, cfg.HistoryLimit)
			},
		},
		"event log": {
			contents: "event_log: events.log\n",
			check: func(t *testing.T, cfg *Configuration) {
				assert.Equal(t, "/cfg/events.log", cfg.EventLogPath())
			},
		},
		"unknown field": {
			contents: "max_job: 5\n",
			wantErr:  true,
		},
		"invalid value": {
			contents: "max_jobs: 0\n",
			wantErr:  true,
		},
		"not yaml": {
			contents: "max_jobs: [\n",
			wantErr:  true,
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			memFs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(memFs, "/cfg/config.yaml", []byte(tc.contents), 0600))

			cfg, err := Load(memFs, "/cfg")
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}

func TestLoad_missing(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/nowhere")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func withoutLocation(cfg *Configuration) *Configuration {
	out := *cfg
	out.configFs = nil
	out.dir = ""
	return &out
}
