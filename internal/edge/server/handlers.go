package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/educationmalaysia/seo-server/internal/common/httputil"
	"github.com/educationmalaysia/seo-server/internal/seo/head"
	"github.com/educationmalaysia/seo-server/internal/seo/inject"
)

const maxHeadRequestBody = 64 * 1024

var errPathRequired = errors.New("path is required")

func newStaticHandler(root string) fasthttp.RequestHandler {
	fs := &fasthttp.FS{
		Root:               root,
		GenerateIndexPages: false,
		AcceptByteRange:    true,
		CacheDuration:      10 * time.Second,
	}
	return fs.NewRequestHandler()
}

// serveStatic serves regular files under dist_dir. Directories, missing
// files and paths escaping the root fall through to the page handler.
func (s *Server) serveStatic(ctx *fasthttp.RequestCtx) bool {
	rel := string(ctx.Path())
	if rel == "" || strings.HasSuffix(rel, "/") {
		return false
	}

	full := filepath.Join(s.distDir, filepath.FromSlash(rel))
	if !strings.HasPrefix(full, s.distDir+string(filepath.Separator)) {
		return false
	}
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	s.static(ctx)
	switch ctx.Response.StatusCode() {
	case fasthttp.StatusOK, fasthttp.StatusPartialContent, fasthttp.StatusNotModified:
		ctx.Response.Header.Set(fasthttp.HeaderCacheControl, s.cacheControl)
	}
	return true
}

// handlePage reads the shell from disk, resolves SEO tags for the request
// and injects them before </head>
func (s *Server) handlePage(ctx *fasthttp.RequestCtx, state *requestState) error {
	shell, err := os.ReadFile(s.indexPath)
	if err != nil {
		return err
	}

	pathname, rawQuery := requestTarget(ctx)

	reqCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.Timeout))
	defer cancel()

	res := s.pipeline.Resolve(reqCtx, pathname, rawQuery)
	state.res = res

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBodyString(inject.Inject(string(shell), res.Tags))
	return nil
}

// handleHeadAPI renders the client navigation head as JSON
func (s *Server) handleHeadAPI(ctx *fasthttp.RequestCtx, state *requestState) {
	req, err := parseHeadRequest(ctx)
	if err != nil {
		state.fail(ErrorTypeBadRequest, err)
		httputil.JSONError(ctx, err.Error(), fasthttp.StatusBadRequest)
		return
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.Timeout))
	defer cancel()

	res, tags := s.pipeline.RenderHead(reqCtx, req)
	state.res = res
	httputil.JSONData(ctx, tags, fasthttp.StatusOK)
}

// requestTarget returns the path as sent by the client (still percent-encoded) and the raw query
func requestTarget(ctx *fasthttp.RequestCtx) (string, string) {
	pathname := string(ctx.URI().PathOriginal())
	if !strings.HasPrefix(pathname, "/") {
		pathname = string(ctx.Path())
	}
	return pathname, string(ctx.URI().QueryString())
}

// parseHeadRequest reads a head.Request from a JSON body (POST) or query arguments (GET/HEAD)
func parseHeadRequest(ctx *fasthttp.RequestCtx) (head.Request, error) {
	var req head.Request

	if ctx.IsPost() {
		body := ctx.PostBody()
		if len(body) > maxHeadRequestBody {
			return req, fmt.Errorf("request body exceeds %d bytes", maxHeadRequestBody)
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return req, fmt.Errorf("invalid JSON body: %w", err)
		}
	} else {
		args := ctx.QueryArgs()
		get := func(key string) string { return string(args.Peek(key)) }

		req = head.Request{
			Path:     get("path"),
			RawQuery: get("query"),
			PageType: get("page_type"),
			Image:    get("image"),
			Data: head.Data{
				Slug:     get("slug"),
				Name:     get("name"),
				Category: get("category"),
				Level:    get("level"),
				Keywords: get("keywords"),
			},
			Overrides: head.Overrides{
				Title:       get("title"),
				Description: get("description"),
				Canonical:   get("canonical"),
			},
		}
		if raw := get("noindex"); raw != "" {
			noindex, err := strconv.ParseBool(raw)
			if err != nil {
				return req, fmt.Errorf("invalid noindex %q", raw)
			}
			req.NoIndex = noindex
		}
	}

	if req.Path == "" {
		return req, errPathRequired
	}
	if !strings.HasPrefix(req.Path, "/") {
		return req, fmt.Errorf("path must start with /, got %q", req.Path)
	}
	if before, after, found := strings.Cut(req.Path, "?"); found {
		req.Path = before
		if req.RawQuery == "" {
			req.RawQuery = after
		}
	}
	req.RawQuery = strings.TrimPrefix(req.RawQuery, "?")

	return req, nil
}
