package extract

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		c := NewConfig()
		c.BamList = "bams.list"
		c.Target = "targets.list"
		c.WorkDir = "out"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"single bam", func(c *Config) { c.BamList = ""; c.Bam = "a.bam" }, ""},
		{"auto workers", func(c *Config) { c.Workers = 0 }, ""},
		{"no inputs", func(c *Config) { c.BamList = "" }, "--bam or --bamlist"},
		{"both inputs", func(c *Config) { c.Bam = "a.bam" }, "mutually exclusive"},
		{"no target", func(c *Config) { c.Target = "" }, "--target"},
		{"no workdir", func(c *Config) { c.WorkDir = "" }, "--workdir"},
		{"negative workers", func(c *Config) { c.Workers = -1 }, "workers"},
		{"zero threads", func(c *Config) { c.Threads = 0 }, "threads"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	c := NewConfig()
	assert.Equal(t, 1, c.Workers)
	assert.Equal(t, 1, c.EffectiveWorkers())
	assert.Equal(t, 1, c.Threads)
	assert.False(t, c.Force)

	c.Workers = 0
	assert.GreaterOrEqual(t, c.EffectiveWorkers(), 1)
}

func TestShowConfig(t *testing.T) {
	c := NewConfig()
	c.Bam = "s3://bucket/a.bam"
	c.Target = "targets.list"
	c.WorkDir = "out"
	c.Anonymous = true

	var buf bytes.Buffer
	c.ShowConfig(&buf)
	out := buf.String()
	assert.Contains(t, out, "BAM: s3://bucket/a.bam")
	assert.Contains(t, out, "Workers: 1")
	assert.Contains(t, out, "Remote access: anonymous")
}

func TestParseCPUMax(t *testing.T) {
	tests := []struct {
		line string
		want int
		ok   bool
	}{
		{"200000 100000", 2, true},
		{"150000 100000", 2, true},
		{"50000 100000", 1, true},
		{"max 100000", 0, false},
		{"", 0, false},
		{"abc 100000", 0, false},
		{"-1 100000", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseCPUMax(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}
