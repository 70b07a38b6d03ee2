package stores

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"Omnipresence/pkg/errors"
)

const (
	defaultPinURL     = "https://api.pinata.cloud/pinning/pinJSONToIPFS"
	defaultGatewayURL = "https://gateway.pinata.cloud/ipfs"
)

// IPFSStore pins JSON documents through a Pinata-compatible service and reads
// them back from its gateway.
type IPFSStore struct {
	cfg    IPFSConfig
	client *http.Client
}

func NewIPFSStore(cfg IPFSConfig) *IPFSStore {
	if cfg.PinURL == "" {
		cfg.PinURL = defaultPinURL
	}
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = defaultGatewayURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &IPFSStore{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

func (s *IPFSStore) PutJSON(ctx context.Context, v interface{}) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "marshal document")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.PinURL, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "build pin request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("pinata_api_key", s.cfg.APIKey)
	req.Header.Set("pinata_secret_api_key", s.cfg.SecretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.WrapCode(err, errors.CodeStoreUnavailable, "content store unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.WithCodef(errors.CodeStoreUnavailable, "content store returned %d", resp.StatusCode)
	}

	var body pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.WrapCode(err, errors.CodeStoreUnavailable, "decode pin response")
	}
	return body.IpfsHash, nil
}

func (s *IPFSStore) GetJSON(ctx context.Context, hash string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.GatewayURL+"/"+hash, nil)
	if err != nil {
		return errors.Wrap(err, "build gateway request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.WrapCode(err, errors.CodeStoreUnavailable, "content store unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.WithCodef(errors.CodeStoreUnavailable, "content store returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapCode(err, errors.CodeStoreUnavailable, "decode document")
	}
	return nil
}
