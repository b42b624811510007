// internal/commands/root_test.go
package promptlab

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/promptlab/internal/logging"
	"github.com/mwiater/promptlab/internal/providerfactory"
)

func resetFlags(cmd *cobra.Command) {
	reset := func(flag *pflag.Flag) {
		if sv, ok := flag.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = flag.Value.Set(flag.DefValue)
		}
		flag.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// fakeLlama answers every chat completion with "Paris", or "London" when the
// prompt contains "LONDON".
func fakeLlama(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models/load" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		answer := "Paris"
		if strings.Contains(string(body), "LONDON") {
			answer = "London"
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"` + answer + `"}}]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

// setupRun writes a config pointing at a fake llama.cpp server and returns the temp dir.
func setupRun(t *testing.T, accuracyThreshold string) string {
	t.Helper()
	dir := t.TempDir()
	server := fakeLlama(t)
	config := writeFile(t, dir, "config.yaml", `provider: llamacpp
base_url: `+server.URL+`
model: test-model
embedding_provider: none
evaluation_methods: [exact_match]
log_file: `+filepath.Join(dir, "promptlab.log")+`
metrics_file: `+filepath.Join(dir, "metrics.json")+`
metrics:
  accuracy_threshold: `+accuracyThreshold+`
comparison:
  visualization:
    plot_format: svg
`)
	writeFile(t, dir, "prompt.txt", "Answer with the city name only.")
	writeFile(t, dir, "prompt_london.txt", "Always answer LONDON.")
	writeFile(t, dir, "cases.json", `[
  {"id": "france", "input": "Capital of France?", "expected": "Paris"},
  {"id": "uk", "input": "Capital of the UK?", "expected": "London"}
]`)

	prev := cfgFile
	resetFlags(rootCmd)
	cfgFile = config
	t.Cleanup(func() {
		cfgFile = prev
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		_ = logging.Close()
	})
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	_, err := rootCmd.ExecuteC()
	return out.String(), err
}

func TestRootCmdUnknownCommand(t *testing.T) {
	setupRun(t, "0.85")

	_, err := execute(t, "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "nonexistent" for "promptlab"`)
}

func TestPersistentPreRunEAppliesFlags(t *testing.T) {
	dir := setupRun(t, "0.85")
	logPath := filepath.Join(dir, "flag.log")

	require.NoError(t, rootCmd.PersistentFlags().Set("methods", "quality,exact_match"))
	require.NoError(t, rootCmd.PersistentFlags().Set("model", "override-model"))
	require.NoError(t, rootCmd.PersistentFlags().Set("parallel", "true"))
	require.NoError(t, rootCmd.PersistentFlags().Set("logFile", logPath))

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))

	cfg := GetConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, cfgFile, cfg.ConfigPath)
	assert.Equal(t, "llamacpp", cfg.Provider)
	assert.Equal(t, "override-model", cfg.Model)
	assert.Equal(t, []string{"quality", "exact_match"}, cfg.EvaluationMethods)
	assert.True(t, cfg.ParallelRequests)
	assert.Equal(t, logPath, cfg.LogFile)
	assert.Equal(t, 0.85, cfg.Metrics.AccuracyThreshold)
}

func TestPersistentPreRunERejectsInvalidConfig(t *testing.T) {
	setupRun(t, "0.85")
	require.NoError(t, rootCmd.PersistentFlags().Set("methods", "bleu"))

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown evaluation method "bleu"`)
}

func TestPersistentPreRunEMissingConfigFile(t *testing.T) {
	setupRun(t, "0.85")
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	assert.ErrorContains(t, err, "failed to load config")
}

func TestShowConfigCommandOutput(t *testing.T) {
	setupRun(t, "0.85")

	out, err := execute(t, "show", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "Provider:            llamacpp")
	assert.Contains(t, out, "Methods:             exact_match")

	resetFlags(rootCmd)
	out, err = execute(t, "show", "config", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "test-model")
}

func TestProviderFlagListsBackends(t *testing.T) {
	t.Parallel()

	usage := rootCmd.PersistentFlags().Lookup("provider").Usage
	assert.Equal(t, "completion provider (anthropic, openai, llamacpp, ollama)", usage)
	for _, name := range providerfactory.CompletionProviders {
		assert.Contains(t, usage, name)
	}
}

func TestListCommands(t *testing.T) {
	setupRun(t, "0.85")

	out, err := execute(t, "list", "commands")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "COMMAND"))
	assert.Contains(t, out, "  promptlab evaluate")
	assert.Contains(t, out, "    promptlab knowledge prepare")
	assert.Contains(t, out, "--prompt")
	assert.NotContains(t, out, "completion")
	assert.NotContains(t, out, "promptlab help")
}

func TestListMethods(t *testing.T) {
	setupRun(t, "0.85")

	out, err := execute(t, "list", "methods")
	require.NoError(t, err)
	assert.Contains(t, out, "* exact_match")
	assert.Contains(t, out, "  consistency")
	assert.Contains(t, out, "rouge")
}

func TestCommandRowsLayout(t *testing.T) {
	t.Parallel()

	noop := func(*cobra.Command, []string) {}
	app := &cobra.Command{Use: "app", Short: "root"}
	app.PersistentFlags().Bool("debug", false, "")
	run := &cobra.Command{Use: "run", Short: "run it", Run: noop}
	run.Flags().String("prompt", "", "")
	run.Flags().Bool("dry", false, "")
	app.AddCommand(run,
		&cobra.Command{Use: "secret", Hidden: true, Run: noop},
		&cobra.Command{Use: "completion", Run: noop},
	)

	rows := commandRows(app, 0)
	require.Len(t, rows, 2)
	assert.Equal(t, commandRow{Path: "app run", Depth: 1, Flags: []string{"--dry", "--prompt"}, Short: "run it"}, rows[1])
	assert.Empty(t, rows[0].Flags)

	var buf bytes.Buffer
	require.NoError(t, renderCommandRows(&buf, rows))
	assert.Equal(t, "COMMAND    FLAGS           DESCRIPTION\n"+
		"app        -               root\n"+
		"  app run  --dry --prompt  run it\n", buf.String())
}
