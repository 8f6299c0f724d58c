// Package nhttp implements the generic HTTP request node. A 4xx or 5xx
// status is a valid result recorded in the output, never a node failure;
// only an unusable configuration fails the node. Transport errors (DNS,
// refused connection, timeout) are likewise recorded as structured output
// so downstream nodes can react to them.
package nhttp

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/s6s-labs/s6s-engine/pkg/flow/node"
	"github.com/s6s-labs/s6s-engine/pkg/httpclient"
	"github.com/s6s-labs/s6s-engine/pkg/logconsole"
	"github.com/s6s-labs/s6s-engine/pkg/model/mflow"
)

type NodeHTTP struct {
	client httpclient.HttpClient
}

func New(client httpclient.HttpClient) NodeHTTP {
	return NodeHTTP{client: client}
}

func (NodeHTTP) Kind() mflow.NodeKind { return mflow.NODE_KIND_HTTP }

func (nh NodeHTTP) Execute(ctx context.Context, n mflow.Node, req *node.RunRequest) node.RunResult {
	url, err := node.ConfigString(n, req.Config, "url")
	if err != nil {
		return node.ErrResult(err)
	}
	method := node.ConfigStringDefault(req.Config, "method", "GET")

	headers := buildHeaders(req.Config, req.Credentials)
	body, err := buildBody(req.Config["body"])
	if err != nil {
		return node.ErrResult(node.NewConfigErr(n.Name, "body", err.Error()))
	}

	request := &httpclient.Request{
		Method:  method,
		URL:     url,
		Headers: headers,
		Body:    body,
	}

	resp, err := httpclient.SendRequestAndConvert(ctx, nh.client, request)
	if err != nil {
		req.Logger.Error("http request failed", "node", n.Name, "url", url, "error", err)
		return node.OkResult(map[string]any{
			"statusCode": 0,
			"error":      true,
			"message":    err.Error(),
			"data":       nil,
		})
	}

	respVar := httpclient.ConvertResponseToVar(resp)
	req.Logger.Info("http request completed",
		"node", n.Name, "method", method, "url", url, "status", resp.StatusCode)
	node.SendConsole(req, n.ID, logconsole.LogLevelInfo,
		fmt.Sprintf("%s %s -> %d %s", method, url, resp.StatusCode, resp.StatusText), nil)

	return node.OkResult(map[string]any{
		"statusCode": respVar.StatusCode,
		"statusText": respVar.StatusText,
		"data":       respVar.Body,
		"headers":    respVar.Headers,
	})
}

// buildHeaders merges configured headers over the default content type,
// then injects credential-derived auth headers. A bearer token or a
// username/password pair sets Authorization; an API key sets X-API-Key.
func buildHeaders(config map[string]any, credentials map[string]string) []httpclient.Header {
	merged := map[string]string{
		"Content-Type": "application/json",
	}

	if raw, ok := config["headers"].(map[string]any); ok {
		for key, value := range raw {
			if str, ok := value.(string); ok {
				merged[key] = str
			}
		}
	}

	if token := credentials["token"]; token != "" {
		merged["Authorization"] = "Bearer " + token
	}
	if apiKey := credentials["apiKey"]; apiKey != "" {
		merged["X-API-Key"] = apiKey
	}
	if user, pass := credentials["username"], credentials["password"]; user != "" && pass != "" {
		basic := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
		merged["Authorization"] = "Basic " + basic
	}

	headers := make([]httpclient.Header, 0, len(merged))
	for key, value := range merged {
		headers = append(headers, httpclient.Header{HeaderKey: key, Value: value})
	}
	return headers
}

func buildBody(raw any) ([]byte, error) {
	switch val := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(val), nil
	case []byte:
		return val, nil
	default:
		by, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("cannot encode as JSON: %w", err)
		}
		return by, nil
	}
}
