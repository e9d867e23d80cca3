package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/PeakMade/Credit-Boost-Portal/internal/config"
	"github.com/PeakMade/Credit-Boost-Portal/internal/store"
)

const graphScope = "https://graph.microsoft.com/.default"

// GraphListSource reads the SharePoint list through Microsoft Graph using the
// client-credentials flow. The access token and the list payload are cached
// in kv when one is given.
type GraphListSource struct {
	cfg        config.SharePointConfig
	httpClient *resty.Client
	kv         store.KV
	logger     *zap.Logger
}

// graphToken is the OAuth2 token endpoint response.
type graphToken struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type graphSite struct {
	ID string `json:"id"`
}

type graphListItems struct {
	Value []struct {
		ID     string `json:"id"`
		Fields Row    `json:"fields"`
	} `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

type graphError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewGraphListSource(cfg config.SharePointConfig, kv store.KV, logger *zap.Logger) *GraphListSource {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")

	return &GraphListSource{
		cfg:        cfg,
		httpClient: client,
		kv:         kv,
		logger:     logger,
	}
}

func (s *GraphListSource) Name() string { return "sharepoint" }

func (s *GraphListSource) Fetch(ctx context.Context) Result {
	if !s.cfg.Configured() {
		return Failed(s.Name(), GraphListFields, errors.New("azure credentials not configured"))
	}

	if rows, ok := s.cachedRows(ctx); ok {
		s.logger.Info("loaded SharePoint list from cache", zap.Int("rows", len(rows)))
		return OK(s.Name(), GraphListFields, rows)
	}

	token, err := s.accessToken(ctx)
	if err != nil {
		s.logger.Error("failed to acquire Graph token", zap.Error(err))
		return Failed(s.Name(), GraphListFields, err)
	}

	siteID, err := s.resolveSite(ctx, token)
	if err != nil {
		s.logger.Error("failed to resolve SharePoint site",
			zap.String("host", s.cfg.Host),
			zap.String("site_path", s.cfg.SitePath),
			zap.Error(err),
		)
		return Failed(s.Name(), GraphListFields, err)
	}

	rows, err := s.listItems(ctx, token, siteID)
	if err != nil {
		s.logger.Error("failed to load SharePoint list items", zap.String("list_id", s.cfg.ListID), zap.Error(err))
		return Failed(s.Name(), GraphListFields, err)
	}

	s.logger.Info("loaded residents from SharePoint list",
		zap.String("list_id", s.cfg.ListID),
		zap.Int("rows", len(rows)),
	)
	s.cacheRows(ctx, rows)
	return OK(s.Name(), GraphListFields, rows)
}

func (s *GraphListSource) tokenKey() string {
	return "creditboost:graph:token:" + s.cfg.TenantID + ":" + s.cfg.ClientID
}

func (s *GraphListSource) rowsKey() string {
	return "creditboost:sharepoint:list:" + s.cfg.ListID
}

func (s *GraphListSource) accessToken(ctx context.Context) (string, error) {
	if s.kv != nil {
		if tok, err := s.kv.Get(ctx, s.tokenKey()); err == nil && tok != "" {
			return tok, nil
		}
	}

	var tok graphToken
	url := fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimRight(s.cfg.AuthorityURL, "/"), s.cfg.TenantID)
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":     s.cfg.ClientID,
			"client_secret": s.cfg.ClientSecret,
			"scope":         graphScope,
			"grant_type":    "client_credentials",
		}).
		SetResult(&tok).
		SetError(&tok).
		Post(url)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	if resp.IsError() || tok.AccessToken == "" {
		return "", fmt.Errorf("token request: %s: %s (status %d)", tok.Error, tok.ErrorDescription, resp.StatusCode())
	}

	if s.kv != nil && tok.ExpiresIn > 60 {
		ttl := time.Duration(tok.ExpiresIn-60) * time.Second
		if err := s.kv.Set(ctx, s.tokenKey(), tok.AccessToken, ttl); err != nil {
			s.logger.Warn("failed to cache Graph token", zap.Error(err))
		}
	}
	return tok.AccessToken, nil
}

// evictTokenOn401 drops a cached token Graph no longer accepts, so the next
// fetch requests a fresh one.
func (s *GraphListSource) evictTokenOn401(ctx context.Context, status int) {
	if status != http.StatusUnauthorized || s.kv == nil {
		return
	}
	if err := s.kv.Delete(ctx, s.tokenKey()); err != nil {
		s.logger.Warn("failed to evict Graph token", zap.Error(err))
		return
	}
	s.logger.Info("Graph rejected cached token, evicted")
}

func (s *GraphListSource) graphURL(path string) string {
	return strings.TrimRight(s.cfg.GraphURL, "/") + path
}

func (s *GraphListSource) resolveSite(ctx context.Context, token string) (string, error) {
	var site graphSite
	var gerr graphError
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&site).
		SetError(&gerr).
		Get(s.graphURL(fmt.Sprintf("/v1.0/sites/%s:%s", s.cfg.Host, s.cfg.SitePath)))
	if err != nil {
		return "", fmt.Errorf("site request: %w", err)
	}
	if resp.IsError() {
		s.evictTokenOn401(ctx, resp.StatusCode())
		return "", fmt.Errorf("site request: %s: %s (status %d)", gerr.Error.Code, gerr.Error.Message, resp.StatusCode())
	}
	if site.ID == "" {
		return "", errors.New("site request: empty site id")
	}
	return site.ID, nil
}

func (s *GraphListSource) listItems(ctx context.Context, token, siteID string) ([]Row, error) {
	next := s.graphURL(fmt.Sprintf("/v1.0/sites/%s/lists/%s/items?expand=fields", siteID, s.cfg.ListID))
	var rows []Row
	for next != "" {
		var page graphListItems
		var gerr graphError
		resp, err := s.httpClient.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetResult(&page).
			SetError(&gerr).
			Get(next)
		if err != nil {
			return nil, fmt.Errorf("list items request: %w", err)
		}
		if resp.IsError() {
			s.evictTokenOn401(ctx, resp.StatusCode())
			return nil, fmt.Errorf("list items request: %s: %s (status %d)", gerr.Error.Code, gerr.Error.Message, resp.StatusCode())
		}
		for _, item := range page.Value {
			fields := item.Fields
			if fields == nil {
				fields = Row{}
			}
			rows = append(rows, fields)
		}
		next = page.NextLink
	}
	return rows, nil
}

func (s *GraphListSource) cachedRows(ctx context.Context) ([]Row, bool) {
	if s.kv == nil || s.cfg.CacheTTL <= 0 {
		return nil, false
	}
	raw, err := s.kv.Get(ctx, s.rowsKey())
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			s.logger.Warn("SharePoint cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var rows []Row
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		s.logger.Warn("SharePoint cache entry unreadable, refetching", zap.Error(err))
		return nil, false
	}
	return rows, len(rows) > 0
}

func (s *GraphListSource) cacheRows(ctx context.Context, rows []Row) {
	if s.kv == nil || s.cfg.CacheTTL <= 0 || len(rows) == 0 {
		return
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, s.rowsKey(), string(b), s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache SharePoint list", zap.Error(err))
	}
}
