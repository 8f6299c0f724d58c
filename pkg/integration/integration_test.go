package integration_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s6s-labs/s6s-engine/pkg/httpclient"
	"github.com/s6s-labs/s6s-engine/pkg/integration"
)

func TestFileSystemRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs := integration.NewFileSystem(dir)
	ctx := context.Background()

	got, err := fs.Execute(ctx, map[string]any{
		"operation": "WRITE", "filePath": "out/report.txt", "content": "hello",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "success", got["status"])

	got, err = fs.Execute(ctx, map[string]any{"operation": "READ", "filePath": "out/report.txt"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", got["content"])

	got, err = fs.Execute(ctx, map[string]any{"operation": "LIST", "filePath": "out"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"report.txt"}, got["files"])

	got, err = fs.Execute(ctx, map[string]any{"operation": "DELETE", "filePath": "out/report.txt"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "success", got["status"])

	got, err = fs.Execute(ctx, map[string]any{"operation": "DELETE", "filePath": "out/report.txt"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "warning", got["status"])
}

func TestFileSystemRejectsEscapingPath(t *testing.T) {
	fs := integration.NewFileSystem(t.TempDir())

	_, err := fs.Execute(context.Background(), map[string]any{
		"operation": "READ", "filePath": "../../etc/passwd",
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes")
}

func TestFileSystemUnsupportedOperation(t *testing.T) {
	fs := integration.NewFileSystem(t.TempDir())

	_, err := fs.Execute(context.Background(), map[string]any{
		"operation": "MOVE", "filePath": "a.txt",
	}, nil)
	require.Error(t, err)
}

func TestSpreadsheetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")
	ss := integration.NewSpreadsheet()
	ctx := context.Background()

	_, err := ss.Execute(ctx, map[string]any{
		"operation": "WRITE",
		"filePath":  path,
		"data": []any{
			map[string]any{"name": "alice", "age": 30},
			map[string]any{"name": "bob", "age": 25},
		},
	}, nil)
	require.NoError(t, err)

	got, err := ss.Execute(ctx, map[string]any{"operation": "READ", "filePath": path}, nil)
	require.NoError(t, err)

	rows := got["data"].([]any)
	require.Len(t, rows, 2)
	first := rows[0].(map[string]any)
	assert.Equal(t, "alice", first["name"])
	assert.Equal(t, "30", first["age"])
}

func TestSpreadsheetReadMissingFile(t *testing.T) {
	ss := integration.NewSpreadsheet()
	_, err := ss.Execute(context.Background(), map[string]any{
		"operation": "READ", "filePath": filepath.Join(t.TempDir(), "nope.csv"),
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestTeamsPostsTextPayload(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte("1"))
	}))
	defer srv.Close()

	teams := integration.NewTeams(httpclient.New())
	got, err := teams.Execute(context.Background(), map[string]any{
		"webhookUrl": srv.URL,
		"message":    "build finished",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "success", got["status"])
	assert.Contains(t, string(gotBody), "build finished")
}

func TestTeamsErrorStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad card", http.StatusBadRequest)
	}))
	defer srv.Close()

	teams := integration.NewTeams(httpclient.New())
	_, err := teams.Execute(context.Background(), map[string]any{"webhookUrl": srv.URL}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestDBQueryAgainstSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "test.db")
	db := integration.NewDBQuery()
	ctx := context.Background()
	creds := map[string]string{"dsn": dsn}

	_, err := db.Execute(ctx, map[string]any{
		"query": "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)",
	}, creds)
	require.NoError(t, err)

	_, err = db.Execute(ctx, map[string]any{
		"query": "INSERT INTO users (name) VALUES ('alice'), ('bob')",
	}, creds)
	require.NoError(t, err)

	got, err := db.Execute(ctx, map[string]any{"query": "SELECT name FROM users ORDER BY id"}, creds)
	require.NoError(t, err)
	assert.Equal(t, 2, got["rowCount"])

	rows := got["rows"].([]any)
	assert.Equal(t, "alice", rows[0].(map[string]any)["name"])
}

func TestDBQueryRequiresDSN(t *testing.T) {
	db := integration.NewDBQuery()
	_, err := db.Execute(context.Background(), map[string]any{"query": "SELECT 1"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn")
}

func TestMailSendFailureIsRecordedNotFatal(t *testing.T) {
	mail := integration.NewMailWithSender(func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return assert.AnError
	})

	got, err := mail.Execute(context.Background(), map[string]any{
		"to": "ops@example.com", "subject": "alert", "body": "disk full",
	}, map[string]string{"host": "smtp.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "FAILED", got["status"])
}

func TestMailSuccess(t *testing.T) {
	var gotTo []string
	var gotMsg []byte
	mail := integration.NewMailWithSender(func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotTo = to
		gotMsg = msg
		return nil
	})

	got, err := mail.Execute(context.Background(), map[string]any{
		"to": "ops@example.com, dev@example.com", "subject": "alert", "body": "disk full",
	}, map[string]string{"host": "smtp.example.com", "user": "mailer", "pass": "pw"})
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", got["status"])
	assert.Equal(t, []string{"ops@example.com", "dev@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: alert")
}

func TestStorageValidatesProviderAndOperation(t *testing.T) {
	storage := integration.NewStorage()
	ctx := context.Background()

	got, err := storage.Execute(ctx, map[string]any{
		"provider": "aws", "operation": "upload", "bucket": "reports", "filePath": "q3.csv",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", got["status"])
	assert.Equal(t, "AWS", got["provider"])

	_, err = storage.Execute(ctx, map[string]any{
		"provider": "DROPBOX", "operation": "UPLOAD", "bucket": "b", "filePath": "f",
	}, nil)
	require.Error(t, err)

	_, err = storage.Execute(ctx, map[string]any{
		"provider": "AWS", "operation": "RENAME", "bucket": "b", "filePath": "f",
	}, nil)
	require.Error(t, err)
}
