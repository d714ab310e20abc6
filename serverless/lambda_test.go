package serverless

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/labstack/echo/v4"
)

type seenRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

func newTestEcho(seen *seenRequest) *echo.Echo {
	e := echo.New()
	e.Any("/*", func(c echo.Context) error {
		body, _ := io.ReadAll(c.Request().Body)
		*seen = seenRequest{
			Method: c.Request().Method,
			Path:   c.Request().URL.Path,
			Query:  c.QueryParam("debug"),
			Body:   string(body),
		}
		c.Response().Header().Add("Vary", "Origin")
		c.Response().Header().Add("Vary", "Accept")
		return c.JSON(http.StatusCreated, map[string]bool{"ok": true})
	})
	return e
}

func encode(t *testing.T, event interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestInvokeRESTEvent(t *testing.T) {
	var seen seenRequest
	h := NewHandler(newTestEcho(&seen))

	out, err := h.Invoke(context.Background(), encode(t, events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPost,
		Path:                  "/.netlify/functions/tapfiliate",
		QueryStringParameters: map[string]string{"debug": "1"},
		Headers:               map[string]string{"Content-Type": "application/json"},
		MultiValueHeaders:     map[string][]string{"Content-Type": {"application/json"}},
		Body:                  base64.StdEncoding.EncodeToString([]byte(`{"mode":"create_affiliate_only"}`)),
		IsBase64Encoded:       true,
		RequestContext: events.APIGatewayProxyRequestContext{
			Identity: events.APIGatewayRequestIdentity{SourceIP: "203.0.113.7"},
		},
	}))
	if err != nil {
		t.Fatal(err)
	}

	want := seenRequest{
		Method: http.MethodPost,
		Path:   "/.netlify/functions/tapfiliate",
		Query:  "1",
		Body:   `{"mode":"create_affiliate_only"}`,
	}
	if seen != want {
		t.Errorf("unexpected request %+v", seen)
	}

	resp, ok := out.(events.APIGatewayProxyResponse)
	if !ok {
		t.Fatalf("expected a proxy response, got %T", out)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("unexpected status %d", resp.StatusCode)
	}
	if got := resp.MultiValueHeaders["Vary"]; !reflect.DeepEqual(got, []string{"Origin", "Accept"}) {
		t.Errorf("expected both Vary values, got %v", got)
	}
}

func TestInvokeHTTPAPIEvent(t *testing.T) {
	var seen seenRequest
	h := NewHandler(newTestEcho(&seen))

	out, err := h.Invoke(context.Background(), encode(t, events.APIGatewayV2HTTPRequest{
		Version:        PayloadFormatV2,
		RawPath:        "/signup",
		RawQueryString: "debug=2",
		Headers:        map[string]string{"content-type": "application/json"},
		Body:           `{"mode":"finalize_affiliate"}`,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:   http.MethodPost,
				Path:     "/signup",
				SourceIP: "203.0.113.7",
			},
		},
	}))
	if err != nil {
		t.Fatal(err)
	}

	want := seenRequest{
		Method: http.MethodPost,
		Path:   "/signup",
		Query:  "2",
		Body:   `{"mode":"finalize_affiliate"}`,
	}
	if seen != want {
		t.Errorf("unexpected request %+v", seen)
	}

	resp, ok := out.(events.APIGatewayV2HTTPResponse)
	if !ok {
		t.Fatalf("expected an http api response, got %T", out)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("unexpected status %d", resp.StatusCode)
	}
	var body map[string]bool
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil || !body["ok"] {
		t.Errorf("unexpected body %q", resp.Body)
	}
}

func TestInvokeRejectsInvalidEvent(t *testing.T) {
	var seen seenRequest
	h := NewHandler(newTestEcho(&seen))

	if _, err := h.Invoke(context.Background(), json.RawMessage(`"not an event"`)); err == nil {
		t.Error("expected an error for a non-object event")
	}
	if seen.Method != "" {
		t.Errorf("handler must not run, saw %+v", seen)
	}
}
