package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const rpcTimeout = 10 * time.Second

type rpcArg struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// RPCRegistry talks to the credit registry contract through a node's
// JSON-RPC endpoint. Return values are decoded as-is and failures are
// rethrown with the invoked method in the message; nonce management and
// retries are left to the node client.
type RPCRegistry struct {
	url      string
	contract string
	client   *http.Client
	observer CallObserver
}

// NewRPCRegistry builds a registry client for the given node URL and
// contract hash.
func NewRPCRegistry(url, contract string, observer CallObserver) *RPCRegistry {
	return &RPCRegistry{
		url:      url,
		contract: contract,
		client:   &http.Client{Timeout: rpcTimeout},
		observer: observer,
	}
}

func (r *RPCRegistry) invoke(ctx context.Context, method string, args []rpcArg) (gjson.Result, error) {
	payload, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "invokefunction",
		"params":  []any{r.contract, method, args},
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("chain: encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("chain: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("chain: invoke %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("chain: read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("chain: invoke %s: node returned %d", method, resp.StatusCode)
	}

	parsed := gjson.ParseBytes(body)
	if rpcErr := parsed.Get("error.message"); rpcErr.Exists() {
		return gjson.Result{}, fmt.Errorf("chain: invoke %s: %s", method, rpcErr.String())
	}
	if state := parsed.Get("result.state").String(); state != "" && state != "HALT" {
		return gjson.Result{}, fmt.Errorf("chain: invoke %s: execution state %s", method, state)
	}
	return parsed.Get("result.stack"), nil
}

func (r *RPCRegistry) AppendRecord(ctx context.Context, record CreditRecord) (CreditRecord, error) {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	// Repayment records arrive with the repaid flag already set, so the
	// full flag state goes over the wire. A zero RepaidAt encodes as 0.
	var repaidAt int64
	if !record.RepaidAt.IsZero() {
		repaidAt = record.RepaidAt.Unix()
	}
	stack, err := r.invoke(ctx, "appendRecord", []rpcArg{
		{Type: "String", Value: record.Address},
		{Type: "Integer", Value: record.Timestamp.Unix()},
		{Type: "Integer", Value: record.Amount},
		{Type: "Boolean", Value: record.Repaid},
		{Type: "Integer", Value: repaidAt},
		{Type: "String", Value: record.Provider},
		{Type: "String", Value: record.RecordType},
		{Type: "Integer", Value: record.ScoreImpact},
	})
	observe(r.observer, "appendRecord", err)
	if err != nil {
		return CreditRecord{}, err
	}

	record.ID = stack.Get("0.value").String()
	if record.ID == "" {
		return CreditRecord{}, fmt.Errorf("chain: appendRecord returned empty record id")
	}
	return record, nil
}

func (r *RPCRegistry) MarkRepaid(ctx context.Context, recordID string, at time.Time) (CreditRecord, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	stack, err := r.invoke(ctx, "markRepaid", []rpcArg{
		{Type: "String", Value: recordID},
		{Type: "Integer", Value: at.Unix()},
	})
	observe(r.observer, "markRepaid", err)
	if err != nil {
		return CreditRecord{}, err
	}

	items := stack.Get("0.value")
	if !items.Exists() {
		return CreditRecord{}, ErrRecordNotFound
	}
	record := decodeRecord(items)
	if record.ID == "" {
		return CreditRecord{}, ErrRecordNotFound
	}
	return record, nil
}

func (r *RPCRegistry) RecordsByAddress(ctx context.Context, address string) ([]CreditRecord, error) {
	stack, err := r.invoke(ctx, "recordsByAddress", []rpcArg{
		{Type: "String", Value: address},
	})
	observe(r.observer, "recordsByAddress", err)
	if err != nil {
		return nil, err
	}

	var records []CreditRecord
	stack.Get("0.value").ForEach(func(_, item gjson.Result) bool {
		records = append(records, decodeRecord(item.Get("value")))
		return true
	})
	return records, nil
}

// Ping checks node reachability with a plain getversion call.
func (r *RPCRegistry) Ping(ctx context.Context) error {
	payload := []byte(`{"jsonrpc":"2.0","id":1,"method":"getversion","params":[]}`)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("chain: ping node: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chain: ping node: status %d", resp.StatusCode)
	}
	return nil
}

// decodeRecord maps the contract's record struct (a positional array of
// stack items) onto a CreditRecord.
func decodeRecord(items gjson.Result) CreditRecord {
	fields := items.Array()
	get := func(i int) gjson.Result {
		if i >= len(fields) {
			return gjson.Result{}
		}
		return fields[i].Get("value")
	}

	record := CreditRecord{
		ID:          get(0).String(),
		Address:     get(1).String(),
		Timestamp:   time.Unix(get(2).Int(), 0).UTC(),
		Amount:      get(3).Int(),
		Repaid:      get(4).Bool(),
		Provider:    get(6).String(),
		RecordType:  get(7).String(),
		ScoreImpact: int(get(8).Int()),
	}
	if repaidAt := get(5).Int(); repaidAt > 0 {
		record.RepaidAt = time.Unix(repaidAt, 0).UTC()
	}
	return record
}
