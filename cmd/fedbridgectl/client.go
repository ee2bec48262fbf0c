package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type BridgeClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type OperationRecord struct {
	OperationID string `json:"operation_id"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
	Preimage    string `json:"preimage,omitempty"`
	Txid        string `json:"txid,omitempty"`
	AmountMsat  uint64 `json:"amount_msat,omitempty"`
	FeeMsat     uint64 `json:"fee_msat,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type HistoryResponse struct {
	Count   int               `json:"count"`
	History []OperationRecord `json:"history"`
}

type FederationView struct {
	FederationID string `json:"federation_id"`
	Network      string `json:"network,omitempty"`
	BalanceMsat  uint64 `json:"balance_msat,omitempty"`
	SnapshotKeys int    `json:"snapshot_keys,omitempty"`
	Connected    bool   `json:"connected"`
}

type FederationsResponse struct {
	Count       int              `json:"count"`
	Federations []FederationView `json:"federations"`
}

type GatewayCandidate struct {
	GatewayID string `json:"gateway_id"`
	Vetted    bool   `json:"vetted"`
	Fees      struct {
		BaseMsat               uint64 `json:"base_msat"`
		ProportionalMillionths uint64 `json:"proportional_millionths"`
	} `json:"fees"`
	SupportsPrivatePayments bool `json:"supports_private_payments"`
}

type GatewaysResponse struct {
	Count    int                `json:"count"`
	Fresh    bool               `json:"fresh"`
	Gateways []GatewayCandidate `json:"gateways"`
}

type BackupResponse struct {
	Message    string `json:"message"`
	BackupPath string `json:"backup_path"`
	Timestamp  string `json:"timestamp"`
}

type BackupsResponse struct {
	Count   int      `json:"count"`
	Backups []string `json:"backups"`
}

func NewBridgeClient(baseURL string) *BridgeClient {
	return &BridgeClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *BridgeClient) get(path string, out interface{}) error {
	resp, err := c.HTTPClient.Get(c.BaseURL + path)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != 200 {
		return decodeError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *BridgeClient) post(path string, payload, out interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest("POST", c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != 200 {
		return decodeError(resp.StatusCode, body)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("server error: %s - %s", errResp.Error, errResp.Message)
	}
	return fmt.Errorf("unexpected status code: %d", status)
}

func (c *BridgeClient) GetHistory(kind string) (*HistoryResponse, error) {
	path := "/history"
	if kind != "" {
		path += "?kind=" + kind
	}
	var out HistoryResponse
	if err := c.get(path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BridgeClient) GetOperation(id string) (*OperationRecord, error) {
	var out OperationRecord
	if err := c.get("/history/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BridgeClient) ListFederations() (*FederationsResponse, error) {
	var out FederationsResponse
	if err := c.get("/federations", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BridgeClient) GetFederation(id string) (*FederationView, error) {
	var out FederationView
	if err := c.get("/federations/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BridgeClient) ListGateways() (*GatewaysResponse, error) {
	var out GatewaysResponse
	if err := c.get("/federations/gateways", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BridgeClient) SelectGateway() (*GatewayCandidate, error) {
	var out GatewayCandidate
	if err := c.post("/federations/gateways/select", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BridgeClient) CreateBackup() (*BackupResponse, error) {
	var out BackupResponse
	if err := c.post("/backup", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BridgeClient) RestoreBackup(path string) error {
	payload := map[string]string{"backup_path": path}
	return c.post("/restore", payload, nil)
}

func (c *BridgeClient) ListBackups() (*BackupsResponse, error) {
	var out BackupsResponse
	if err := c.get("/backups", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
