package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	livePageSize        = 5000
	defaultLiveMaxPages = 500
)

// ErrPageLimit is returned when paging does not terminate.
var ErrPageLimit = errors.New("sources: live page limit reached")

// LiveConfig configures the transactions API.
type LiveConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	MaxPages     int
}

// HTTPClient returns a client that attaches a client-credentials token. The
// plain default client is used when no token endpoint is configured.
func (c LiveConfig) HTTPClient(ctx context.Context) *http.Client {
	if c.TokenURL == "" || c.ClientID == "" {
		return &http.Client{Timeout: time.Minute}
	}
	cfg := clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
	}
	if c.Scope != "" {
		cfg.Scopes = []string{c.Scope}
	}
	client := cfg.Client(ctx)
	client.Timeout = time.Minute
	return client
}

// Live aggregates retail transactions read page by page.
type Live struct {
	client    *http.Client
	baseURL   string
	maxPages  int
	mapping   *Mapping
	reference *Reference
	logger    *slog.Logger
	newID     func() string
}

// NewLive reads transactions under cfg.BaseURL with client.
func NewLive(client *http.Client, cfg LiveConfig, mapping *Mapping, reference *Reference, logger *slog.Logger) *Live {
	if logger == nil {
		logger = slog.Default()
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultLiveMaxPages
	}
	return &Live{
		client:    client,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		maxPages:  maxPages,
		mapping:   mapping,
		reference: reference,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

type liveTransaction struct {
	OperatingUnitNumber string  `json:"OperatingUnitNumber"`
	PaymentAmount       float64 `json:"PaymentAmount"`
	TransactionDate     string  `json:"TransactionDate"`
	StaffID             string  `json:"StaffId"`
	StaffName           string  `json:"StaffName"`
}

type livePage struct {
	Value    []liveTransaction `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}

// query builds the first page URL for the request window.
func (l *Live) query(req Request) string {
	from, to := req.Window()
	filter := fmt.Sprintf("PaymentAmount ne 0 and TransactionDate ge %s and TransactionDate lt %s",
		from.Format(time.RFC3339), to.AddDate(0, 0, 1).Format(time.RFC3339))
	if req.StoreID != "" {
		filter += fmt.Sprintf(" and OperatingUnitNumber eq '%s'", odataQuote(req.StoreID))
	}
	if req.EmployeeID != "" {
		filter += fmt.Sprintf(" and StaffId eq '%s'", odataQuote(req.EmployeeID))
	}
	v := url.Values{}
	v.Set("$filter", filter)
	v.Set("$select", "OperatingUnitNumber,PaymentAmount,TransactionDate,StaffId,StaffName")
	v.Set("$orderby", "TransactionDate")
	return l.baseURL + "/data/RetailTransactions?" + strings.ReplaceAll(v.Encode(), "+", "%20")
}

func odataQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func (l *Live) page(ctx context.Context, pageURL string) (livePage, error) {
	var page livePage
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return page, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Prefer", fmt.Sprintf("odata.maxpagesize=%d", livePageSize))
	client := l.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return page, fmt.Errorf("sources: live page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page, fmt.Errorf("%w: live api returned %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	if err := decodeJSON(resp.Body, &page); err != nil {
		return page, fmt.Errorf("sources: decode live page: %w", err)
	}
	return page, nil
}

type employeeCell struct {
	name     string
	storeID  string
	sales    float64
	invoices int
}

// Metrics pages through the window and aggregates by store, employee and day.
func (l *Live) Metrics(ctx context.Context, req Request) Response {
	if err := req.Validate(); err != nil {
		return Failed(SourceLive, req, err)
	}
	requestID := l.newID()
	logger := l.logger.With(slog.String("request_id", requestID))

	led := newLedger()
	employees := make(map[string]*employeeCell)
	daily := make(map[string]map[string]*employeeCell)
	pages, fetched := 0, 0
	next := l.query(req)
	for next != "" {
		if pages >= l.maxPages {
			return l.failed(ctx, logger, req, requestID, ErrPageLimit)
		}
		page, err := l.page(ctx, next)
		if err != nil {
			return l.failed(ctx, logger, req, requestID, err)
		}
		pages++
		fetched += len(page.Value)
		for _, tx := range page.Value {
			date := transactionDay(tx.TransactionDate)
			if date == "" {
				continue
			}
			store := strings.TrimSpace(tx.OperatingUnitNumber)
			c := led.at(date, store)
			c.sales += tx.PaymentAmount
			c.invoices++

			staff := strings.TrimSpace(tx.StaffID)
			if staff == "" {
				continue
			}
			addEmployee(employees, staff, store, tx)
			day, ok := daily[date]
			if !ok {
				day = make(map[string]*employeeCell)
				daily[date] = day
			}
			addEmployee(day, staff, store, tx)
		}
		next = page.NextLink
	}

	var notes []string
	ref, err := l.reference.Load(ctx)
	if err != nil {
		logger.WarnContext(ctx, "reference data unavailable", slog.Any("error", err))
		notes = append(notes, "reference unavailable")
	}
	names, err := l.mapping.Load(ctx)
	if err != nil {
		logger.WarnContext(ctx, "store mapping unavailable", slog.Any("error", err))
		notes = append(notes, "store mapping unavailable")
	}
	from, to := req.Window()
	mergeVisitors(led, ref.Visitors, func(t Tuple) bool {
		if req.StoreID != "" && t.StoreID != req.StoreID {
			return false
		}
		day, ok := t.Day()
		return ok && !day.Before(from) && !day.After(to)
	})

	nameOf := func(id string) string {
		if n := names.Name(id); n != "" {
			return n
		}
		return id
	}
	byStore, byDay, totals := led.build(storeInfo{
		name:   nameOf,
		target: targetsFor(led, req.Filter(), ref.Targets, nil),
	})
	for i := range byDay {
		byDay[i].ByEmployee = employeeMetrics(daily[byDay[i].Date], nameOf)
	}

	logger.DebugContext(ctx, "live metrics fetched",
		slog.Int("pages", pages),
		slog.Int("fetched", fetched),
	)
	return Response{
		Success:    true,
		Range:      rangeOf(req),
		ByStore:    byStore,
		ByEmployee: employeeMetrics(employees, nameOf),
		ByDay:      byDay,
		Totals:     totals,
		Debug: Debug{
			Source:    SourceLive,
			RequestID: requestID,
			Pages:     pages,
			Fetched:   fetched,
			Notes:     notes,
		},
	}
}

// Invalidate drops the memoized mapping and reference data.
func (l *Live) Invalidate() {
	l.mapping.Invalidate()
	l.reference.Invalidate()
}

func (l *Live) failed(ctx context.Context, logger *slog.Logger, req Request, requestID string, err error) Response {
	logger.WarnContext(ctx, "live metrics failed", slog.Any("error", err))
	resp := Failed(SourceLive, req, err)
	resp.Debug.RequestID = requestID
	return resp
}

func addEmployee(into map[string]*employeeCell, staff, store string, tx liveTransaction) {
	e, ok := into[staff]
	if !ok {
		e = &employeeCell{name: strings.TrimSpace(tx.StaffName), storeID: store}
		into[staff] = e
	}
	e.sales += tx.PaymentAmount
	e.invoices++
}

func employeeMetrics(cells map[string]*employeeCell, nameOf func(string) string) []EmployeeMetrics {
	out := make([]EmployeeMetrics, 0, len(cells))
	for _, id := range sortedKeys(cells) {
		e := cells[id]
		out = append(out, EmployeeMetrics{
			EmployeeID:   id,
			EmployeeName: e.name,
			StoreID:      e.storeID,
			StoreName:    nameOf(e.storeID),
			SalesAmount:  e.sales,
			Invoices:     e.invoices,
			KPIs:         kpisFor(e.sales, e.invoices, 0),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SalesAmount > out[j].SalesAmount })
	return out
}

// transactionDay extracts the UTC day of an OData timestamp.
func transactionDay(raw string) string {
	raw = strings.TrimSpace(raw)
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return dayOf(ts)
	}
	if len(raw) >= len(dayLayout) {
		if d, err := time.Parse(dayLayout, raw[:len(dayLayout)]); err == nil {
			return dayOf(d)
		}
	}
	return ""
}
