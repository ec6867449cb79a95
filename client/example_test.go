package client_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adamwoolhether/apiclient/client"
	"github.com/adamwoolhether/apiclient/client/clienttest"
)

type user struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func ExampleBuild() {
	c, err := client.Build(
		client.WithBaseURL("https://api.example.com/v1"),
		client.WithTimeout(10*time.Second),
		client.WithUserAgent("example/1.0"),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	_ = c
	fmt.Println("client built")
	// Output: client built
}

func ExampleEndpoint_URL() {
	ep := client.Endpoint{
		Path:   "/users",
		Method: client.MethodGet,
		Query:  []client.QueryParam{{Name: "name", Value: "Leanne Graham"}},
	}

	base, _ := url.Parse("https://example.com/api/")
	u, err := ep.URL(base)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(u.String())
	// Output: https://example.com/api/users?name=Leanne+Graham
}

func ExampleRequest() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = clienttest.RespondEnvelope(w, http.StatusOK, true, "found", user{ID: 1, Name: "alice"})
	}))
	defer ts.Close()

	c, _ := client.Build(client.WithBaseURL(ts.URL))

	env, err := client.Request[user](context.Background(), c, client.Endpoint{Path: "/users/1", Method: client.MethodGet})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(env.Status, *env.Message, env.Data.Name)
	// Output: true found alice
}

func ExampleRequest_barePayload() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = clienttest.RespondJSON(w, http.StatusOK, []user{{ID: 1, Name: "alice"}, {ID: 2, Name: "bob"}})
	}))
	defer ts.Close()

	c, _ := client.Build(client.WithBaseURL(ts.URL))

	env, err := client.Request[[]user](context.Background(), c, client.Endpoint{Path: "/users", Method: client.MethodGet})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	users, _ := env.Value()
	fmt.Println(env.Status, len(users), env.Message == nil)
	// Output: true 2 true
}

func ExampleCheckStatus() {
	for _, code := range []int{200, 401, 404, 503, 302} {
		fmt.Println(code, client.CheckStatus(code))
	}
	// Output:
	// 200 <nil>
	// 401 unauthorized
	// 404 not found
	// 503 server error: 503
	// 302 unhandled status code: 302
}

func ExampleDecodeEnvelope() {
	env, err := client.DecodeEnvelope[int]([]byte(`{"status":false,"message":"quota exceeded"}`))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(env.Status, *env.Message, env.Data == nil)
	// Output: false quota exceeded true
}

func ExampleBuildMultipart() {
	body, err := client.BuildMultipart("XYZ", client.Form{
		Fields: []client.Field{{Name: "title", Value: "hi"}},
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Printf("%q\n", body)
	// Output: "--XYZ\r\nContent-Disposition: form-data; name=\"title\"\r\n\r\nhi\r\n--XYZ--\r\n"
}

func ExampleUploadMultipartWithProgress() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = clienttest.RespondJSON(w, http.StatusCreated, map[string]int{"files": len(r.MultipartForm.File)})
	}))
	defer ts.Close()

	c, _ := client.Build()

	form := client.Form{Files: []client.File{{
		Data:      []byte("hello"),
		FieldName: "file",
		FileName:  "hello.txt",
		MIMEType:  "text/plain",
	}}}

	var last float64
	resp, err := client.UploadMultipartWithProgress[map[string]int](context.Background(), c, ts.URL, form, nil, func(p float64) {
		last = p
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(resp["files"], last)
	// Output: 1 1
}

func ExampleClient_Download() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "file contents")
	}))
	defer ts.Close()

	dir, _ := os.MkdirTemp("", "example")
	defer os.RemoveAll(dir)

	c, _ := client.Build()

	sum := sha256.Sum256([]byte("file contents"))

	path, err := c.Download(context.Background(), ts.URL, filepath.Join(dir, "out", "file.txt"),
		client.WithChecksum(sha256.New(), hex.EncodeToString(sum[:])),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	data, _ := os.ReadFile(path)
	fmt.Println(string(data))
	// Output: file contents
}

func ExampleClient_DownloadAsync_batch() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.URL.Path)
	}))
	defer ts.Close()

	dir, _ := os.MkdirTemp("", "example")
	defer os.RemoveAll(dir)

	c, _ := client.Build()

	r, err := c.DownloadAsync(context.Background(), ts.URL+"/a", filepath.Join(dir, "a.txt"), client.WithBatch(2))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	r.Add(context.Background(), ts.URL+"/b", filepath.Join(dir, "b.txt"))

	if err := r.Wait(); err != nil {
		fmt.Println("error:", err)
		return
	}

	a, _ := os.ReadFile(filepath.Join(dir, "a.txt"))
	b, _ := os.ReadFile(filepath.Join(dir, "b.txt"))
	fmt.Println(string(a), string(b))
	// Output: /a /b
}
