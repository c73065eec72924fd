package firmenbuch

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchResponseBody = `<?xml version="1.0"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Body>
    <SUCHEURKUNDEResponse>
      <ERGEBNIS><KEY>URK/123/2023/XML</KEY><BEZEICHNUNG>Jahresabschluss 2023</BEZEICHNUNG><DATUM>20240301</DATUM></ERGEBNIS>
      <ERGEBNIS><KEY>URK/122/2023/PDF</KEY><BEZEICHNUNG>Jahresabschluss 2023</BEZEICHNUNG><DATUM>20240301</DATUM></ERGEBNIS>
    </SUCHEURKUNDEResponse>
  </soap:Body>
</soap:Envelope>`

func TestSearchDocuments(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "<FNR>FN123456a</FNR>")
		fmt.Fprint(w, searchResponseBody)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	docs, err := c.SearchDocuments(context.Background(), "FN123456a")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "URK/123/2023/XML", docs[0].Key)
	assert.Equal(t, "Jahresabschluss 2023", docs[0].Name)
	assert.True(t, docs[0].IsXML())
	assert.False(t, docs[1].IsXML())

	xmlDocs := FilterXML(docs)
	require.Len(t, xmlDocs, 1)
	assert.Equal(t, "URK/123/2023/XML", xmlDocs[0].Key)
}

func TestFetchDocument(t *testing.T) {
	t.Parallel()

	content := `<BILANZ xmlns="https://finanzonline.bmf.gv.at/bilanz"/>`
	encoded := base64.StdEncoding.EncodeToString([]byte(content))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "<KEY>URK/123/2023/XML</KEY>")
		fmt.Fprintf(w, `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope"><soap:Body><URKUNDEResponse><DOKUMENT><CONTENT>%s</CONTENT></DOKUMENT></URKUNDEResponse></soap:Body></soap:Envelope>`, encoded)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := c.FetchDocument(context.Background(), "URK/123/2023/XML")
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestFetchDocument_Empty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope"><soap:Body><URKUNDEResponse><DOKUMENT><CONTENT></CONTENT></DOKUMENT></URKUNDEResponse></soap:Body></soap:Envelope>`)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.FetchDocument(context.Background(), "URK/1/2023/XML")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty document content")
}

func TestCall_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, searchResponseBody)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	docs, err := c.SearchDocuments(context.Background(), "FN123456a")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCall_UnexpectedStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.SearchDocuments(context.Background(), "FN123456a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 403")
}

func TestFilterXML_Empty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, FilterXML(nil))
	assert.Nil(t, FilterXML([]Document{{Key: "URK/1/PDF"}}))
}

func TestEnvelopeEscaping(t *testing.T) {
	t.Parallel()

	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = string(body)
		fmt.Fprint(w, searchResponseBody)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.SearchDocuments(context.Background(), "FN<1>&a")
	require.NoError(t, err)
	assert.True(t, strings.Contains(got, "FN&lt;1&gt;&amp;a"))
}
