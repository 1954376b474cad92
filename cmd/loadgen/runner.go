package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/baharkarakas/point-ledger/internal/models"
	"github.com/baharkarakas/point-ledger/internal/worker"
)

type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration) *client {
	return &client{base: strings.TrimRight(base, "/"), http: &http.Client{Timeout: timeout}}
}

func (c *client) pointsURL(user, suffix string) string {
	return c.base + "/api/v1/points/" + url.PathEscape(user) + suffix
}

func (c *client) balance(ctx context.Context, user string) (models.Balance, error) {
	var b models.Balance
	_, err := c.do(ctx, http.MethodGet, c.pointsURL(user, ""), nil, &b)
	return b, err
}

func (c *client) historyLen(ctx context.Context, user string) (int, error) {
	var h []models.HistoryEntry
	_, err := c.do(ctx, http.MethodGet, c.pointsURL(user, "/histories"), nil, &h)
	return len(h), err
}

// mutate returns the HTTP status; transport failures are errors.
func (c *client) mutate(ctx context.Context, user, op string, amount int64) (int, error) {
	return c.do(ctx, http.MethodPatch, c.pointsURL(user, "/"+op), []byte(strconv.FormatInt(amount, 10)), nil)
}

func (c *client) do(ctx context.Context, method, target string, body []byte, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("%s %s: status %d", method, target, resp.StatusCode)
	}
	return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
}

type runner struct {
	client  *client
	user    string
	charges int
	uses    int
	amount  int64
	workers int
}

type report struct {
	User                 string
	Start, Final         int64
	HistoryBefore, After int
	OKCharges, OKUses    int64
	Rejected, Failed     int64
	Elapsed              time.Duration
	Amount               int64
}

func (r report) Expected() int64 {
	return r.Start + (r.OKCharges-r.OKUses)*r.Amount
}

// Consistent holds when every accepted request is reflected exactly once.
func (r report) Consistent() bool {
	return r.Failed == 0 &&
		r.Final == r.Expected() &&
		int64(r.After-r.HistoryBefore) == r.OKCharges+r.OKUses
}

func (r report) Print(w io.Writer) {
	fmt.Fprintln(w, "========== LOAD RESULTS ==========")
	fmt.Fprintf(w, "User:             %s\n", r.User)
	fmt.Fprintf(w, "Start balance:    %d\n", r.Start)
	fmt.Fprintf(w, "Charges applied:  %d\n", r.OKCharges)
	fmt.Fprintf(w, "Uses applied:     %d\n", r.OKUses)
	fmt.Fprintf(w, "Rejected:         %d\n", r.Rejected)
	fmt.Fprintf(w, "Failed:           %d\n", r.Failed)
	fmt.Fprintf(w, "Final balance:    %d (expected %d)\n", r.Final, r.Expected())
	fmt.Fprintf(w, "Duration:         %v\n", r.Elapsed)
	fmt.Fprintln(w, "==================================")
}

func (r *runner) Run(ctx context.Context) (report, error) {
	rep := report{User: r.user, Amount: r.amount}

	start, err := r.client.balance(ctx, r.user)
	if err != nil {
		return rep, fmt.Errorf("initial balance: %w", err)
	}
	rep.Start = start.Amount
	if rep.HistoryBefore, err = r.client.historyLen(ctx, r.user); err != nil {
		return rep, fmt.Errorf("initial history: %w", err)
	}

	var okCharges, okUses, rejected, failed atomic.Int64
	send := func(op string, ok *atomic.Int64) {
		status, err := r.client.mutate(ctx, r.user, op, r.amount)
		switch {
		case err != nil || status >= http.StatusInternalServerError:
			failed.Add(1)
		case status == http.StatusOK:
			ok.Add(1)
		default:
			rejected.Add(1)
		}
	}

	began := time.Now()
	pool := worker.NewPool(r.workers, r.workers*2)
	for i := 0; i < r.charges || i < r.uses; i++ {
		if i < r.charges {
			pool.Submit(func() { send("charge", &okCharges) })
		}
		if i < r.uses {
			pool.Submit(func() { send("use", &okUses) })
		}
	}
	pool.Stop()
	rep.Elapsed = time.Since(began)

	rep.OKCharges, rep.OKUses = okCharges.Load(), okUses.Load()
	rep.Rejected, rep.Failed = rejected.Load(), failed.Load()

	final, err := r.client.balance(ctx, r.user)
	if err != nil {
		return rep, fmt.Errorf("final balance: %w", err)
	}
	rep.Final = final.Amount
	if rep.After, err = r.client.historyLen(ctx, r.user); err != nil {
		return rep, fmt.Errorf("final history: %w", err)
	}
	return rep, nil
}
