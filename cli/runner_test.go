package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/richinex/ollamabridge/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{
		"BRIDGE_CONFIG", "BRIDGE_RUNTIME", "OLLAMA_HOST", "OLLAMA_MODEL_ID",
		"OPENAI_BASE_URL", "OPENAI_API_KEY", "BRIDGE_WORKDIR", "BRIDGE_DB_PATH",
		"BRIDGE_LOG_LEVEL", "BRIDGE_LOG_OUTPUT", "BRIDGE_LOG_FORMAT",
	} {
		t.Setenv(env, "")
	}
}

// fakeOllama serves /api/chat, replying with the given body and recording requests.
func fakeOllama(t *testing.T, reply string) (*httptest.Server, *[]string) {
	t.Helper()
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &bodies
}

const doneReply = `{"model":"qwen2.5-coder:7b","message":{"role":"assistant","content":"Done."},"done":true,"prompt_eval_count":10,"eval_count":5}`

func TestAsk(t *testing.T) {
	isolateEnv(t)
	srv, bodies := fakeOllama(t, doneReply)

	var out bytes.Buffer
	err := Ask(context.Background(), "list files", "S", Options{Host: srv.URL, WorkDir: "/w"}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Done.")
	assert.Contains(t, out.String(), "end_turn, 10 in / 5 out tokens")

	require.Len(t, *bodies, 1)
	body := (*bodies)[0]
	assert.Equal(t, "system", gjson.Get(body, "messages.0.role").String())
	assert.Equal(t, "S", gjson.Get(body, "messages.0.content").String())
	assert.Equal(t, "list files", gjson.Get(body, "messages.1.content").String())
	assert.Equal(t, int64(8), gjson.Get(body, "tools.#").Int())
	assert.Equal(t, llm.DefaultModelID, gjson.Get(body, "model").String())
}

func TestAskJSONAndExchangeLog(t *testing.T) {
	isolateEnv(t)
	srv, _ := fakeOllama(t, `{"message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"read_file","arguments":{"path":"a.go"}}}]},"done":true}`)
	db := filepath.Join(t.TempDir(), "x.db")
	opts := Options{Host: srv.URL, DBPath: db, JSON: true}

	var out bytes.Buffer
	require.NoError(t, Ask(context.Background(), "read a.go", "S", opts, &out))
	assert.Equal(t, "tool_use", gjson.Get(out.String(), "stop_reason").String())
	assert.Equal(t, "a.go", gjson.Get(out.String(), "content.1.input.path").String())

	var hist bytes.Buffer
	require.NoError(t, History(context.Background(), 10, opts, &hist))
	assert.Equal(t, int64(1), gjson.Get(hist.String(), "#").Int())
	assert.Equal(t, "tool_use", gjson.Get(hist.String(), "0.StopReason").String())
}

func TestAskRuntimeUnavailable(t *testing.T) {
	isolateEnv(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := Ask(context.Background(), "hi", "S", Options{Host: url}, io.Discard)
	require.Error(t, err)
	assert.True(t, llm.IsRuntimeUnavailable(err))
	assert.Contains(t, err.Error(), "is the runtime running at")
}

func TestChat(t *testing.T) {
	isolateEnv(t)
	srv, bodies := fakeOllama(t, doneReply)

	in := strings.NewReader("hello\n\nagain\nexit\nignored\n")
	var out bytes.Buffer
	require.NoError(t, Chat(context.Background(), "S", Options{Host: srv.URL}, in, &out))

	require.Len(t, *bodies, 2)
	second := (*bodies)[1]
	assert.Equal(t, int64(4), gjson.Get(second, "messages.#").Int())
	assert.Equal(t, "hello", gjson.Get(second, "messages.1.content").String())
	assert.Equal(t, "assistant", gjson.Get(second, "messages.2.role").String())
	assert.Equal(t, "Done.", gjson.Get(second, "messages.2.content").String())
	assert.Equal(t, "again", gjson.Get(second, "messages.3.content").String())
	assert.Equal(t, 2, strings.Count(out.String(), "Done."))
}

func TestDescribe(t *testing.T) {
	isolateEnv(t)
	img := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(img, []byte("PNGDATA-PAYLOAD"), 0o644))

	var out bytes.Buffer
	require.NoError(t, Describe("what is this", []string{img}, Options{}, &out))

	var readable struct {
		Model    string            `json:"model"`
		Messages []llm.ChatMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &readable))
	assert.Equal(t, llm.DefaultModelID, readable.Model)
	require.Len(t, readable.Messages, 2)
	assert.Equal(t, "(system prompt omitted)", readable.Messages[0].Content)
	assert.Equal(t, "what is this\n[Image]", readable.Messages[1].Content)
	assert.NotContains(t, out.String(), "UE5HREFUQS1QQVlMT0FE") // base64 of the payload
}

func TestDescribeMissingImage(t *testing.T) {
	isolateEnv(t)
	err := Describe("x", []string{filepath.Join(t.TempDir(), "missing.png")}, Options{}, io.Discard)
	assert.Error(t, err)
}

func TestListTools(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, ListTools("/srv/app", true, false, &out))
	assert.Contains(t, out.String(), "execute_command")
	assert.Contains(t, out.String(), "command*: string")
	assert.Contains(t, out.String(), "/srv/app")

	out.Reset()
	require.NoError(t, ListTools("/srv/app", false, true, &out))
	assert.Equal(t, int64(8), gjson.Get(out.String(), "#").Int())
}

func TestListModels(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, ListModels("llama3.1:8b", false, &out))
	assert.Contains(t, out.String(), "* llama3.1:8b")
	assert.NotContains(t, out.String(), "* "+llm.DefaultModelID)

	out.Reset()
	require.NoError(t, ListModels("unknown", false, &out))
	assert.Contains(t, out.String(), "* "+llm.DefaultModelID)
}

func TestHistoryRequiresStore(t *testing.T) {
	isolateEnv(t)
	err := History(context.Background(), 5, Options{}, io.Discard)
	assert.Error(t, err)
}

func TestLoadSettingsOverrides(t *testing.T) {
	isolateEnv(t)

	s, err := loadSettings(Options{Runtime: "lmstudio", Model: "llama3.2:3b", Host: "http://10.0.0.2:11434/", Verbose: true})
	require.NoError(t, err)
	assert.Equal(t, "openai", s.Runtime)
	assert.Equal(t, "llama3.2:3b", s.Ollama.ModelID)
	assert.Equal(t, "http://10.0.0.2:11434", s.Ollama.Host)
	assert.Equal(t, "http://10.0.0.2:11434/v1", s.OpenAI.BaseURL)
	assert.Equal(t, "debug", s.Log.Level)

	s, err = loadSettings(Options{Host: "127.0.0.1:11434"})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:11434", s.Ollama.Host)
	assert.Equal(t, "http://127.0.0.1:11434/v1", s.OpenAI.BaseURL)
}

func TestBareHostReachesRuntime(t *testing.T) {
	isolateEnv(t)
	srv, bodies := fakeOllama(t, doneReply)

	var out bytes.Buffer
	host := strings.TrimPrefix(srv.URL, "http://")
	require.NoError(t, Ask(context.Background(), "hi", "S", Options{Host: host}, &out))
	assert.Len(t, *bodies, 1)
	assert.Contains(t, out.String(), "Done.")
}

func TestConfiguredWorkDir(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	t.Setenv("BRIDGE_WORKDIR", dir)

	got, err := ConfiguredWorkDir(Options{})
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	flag := t.TempDir()
	got, err = ConfiguredWorkDir(Options{WorkDir: flag})
	require.NoError(t, err)
	assert.Equal(t, flag, got)
}
