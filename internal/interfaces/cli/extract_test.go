package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchemaJSON = `{"person": {"description": "Names of people", "multiplicity": "many"}}`

// newBackend serves OpenAI-style chat completions whose content reports the
// known names found verbatim in the user message.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Messages)

		prompt := req.Messages[len(req.Messages)-1].Content
		persons := []string{}
		for _, name := range []string{"Ada Lovelace", "Grace Hopper"} {
			if strings.Contains(prompt, name) {
				persons = append(persons, name)
			}
		}
		content, err := json.Marshal(map[string]any{"person": persons})
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": string(content)}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setBackendEnv(t *testing.T, baseURL string) {
	t.Helper()
	t.Setenv("ENTITAG_LLM_BASE_URL", baseURL)
	t.Setenv("ENTITAG_LLM_API_KEY", "test-key")
}

func TestExtractCommand_TextArgument(t *testing.T) {
	srv := newBackend(t)
	setBackendEnv(t, srv.URL)

	stdout, _, err := executeCommand(t,
		"extract", "Ada Lovelace wrote the first program.",
		"--schema", testSchemaJSON,
	)
	require.NoError(t, err)

	var resp struct {
		Mode     string `json:"mode"`
		Encoding string `json:"encoding"`
		Results  []struct {
			Tokens []struct {
				Token string `json:"token"`
				Tag   string `json:"tag"`
			} `json:"tokens"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "agentic", resp.Mode)
	assert.Equal(t, "conll", resp.Encoding)
	require.Len(t, resp.Results, 1)

	var tags []string
	for _, tok := range resp.Results[0].Tokens {
		tags = append(tags, tok.Tag)
	}
	assert.Contains(t, tags, "B-Person")
	assert.Contains(t, tags, "E-Person")
}

func TestExtractCommand_EntitiesEncoding(t *testing.T) {
	srv := newBackend(t)
	setBackendEnv(t, srv.URL)

	stdout, _, err := executeCommand(t,
		"extract", "Ada Lovelace met Grace Hopper.",
		"--schema", testSchemaJSON,
		"--encoding", "entities",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Ada Lovelace")
	assert.Contains(t, stdout, "Grace Hopper")
	assert.Contains(t, stdout, `"Person"`)
}

func TestExtractCommand_InputFile(t *testing.T) {
	srv := newBackend(t)
	setBackendEnv(t, srv.URL)

	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("Grace Hopper built a compiler."), 0o644))

	stdout, _, err := executeCommand(t,
		"extract", "--input", path,
		"--schema", testSchemaJSON,
		"--output", "text",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Grace\tB-Person")
	assert.Contains(t, stdout, "Hopper\tE-Person")
}

func TestExtractCommand_JSONLRecords(t *testing.T) {
	srv := newBackend(t)
	setBackendEnv(t, srv.URL)

	path := filepath.Join(t.TempDir(), "records.jsonl")
	lines := `{"id": 1, "text": "Ada Lovelace was first."}` + "\n" +
		`{"id": 2, "text": "Grace Hopper came later."}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	stdout, _, err := executeCommand(t,
		"extract", "--input", path, "--jsonl",
		"--schema", testSchemaJSON,
		"--encoding", "entities",
	)
	require.NoError(t, err)

	var resp struct {
		Results []struct {
			Entities []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"entities"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Ada Lovelace", resp.Results[0].Entities[0].Text)
	assert.Equal(t, "Grace Hopper", resp.Results[1].Entities[0].Text)
}

func TestExtractCommand_SchemaFile(t *testing.T) {
	srv := newBackend(t)
	setBackendEnv(t, srv.URL)

	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(testSchemaJSON), 0o644))

	_, _, err := executeCommand(t,
		"extract", "Ada Lovelace wrote programs.",
		"--schema-file", path,
	)
	assert.NoError(t, err)
}

func TestExtractCommand_MissingSchema(t *testing.T) {
	_, _, err := executeCommand(t, "extract", "some text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--schema")
}

func TestExtractCommand_SchemaAndSchemaFileAreExclusive(t *testing.T) {
	_, _, err := executeCommand(t,
		"extract", "some text",
		"--schema", testSchemaJSON,
		"--schema-file", "schema.json",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestExtractCommand_MissingInput(t *testing.T) {
	_, _, err := executeCommand(t, "extract", "--schema", testSchemaJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--input")
}

func TestExtractCommand_UnknownMode(t *testing.T) {
	_, _, err := executeCommand(t,
		"extract", "some text",
		"--schema", testSchemaJSON,
		"--mode", "telepathic",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported extraction mode")
}

func TestExtractCommand_UnknownEncoding(t *testing.T) {
	_, _, err := executeCommand(t,
		"extract", "some text",
		"--schema", testSchemaJSON,
		"--encoding", "xml",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output encoding")
}

func TestReadRecords_MissingColumn(t *testing.T) {
	_, err := readRecords(strings.NewReader(`{"body": "text here"}`+"\n"), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no "text" field`)
}
