package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ansatz-systems/goqaoa/goqaoa"
)

// The access token is only ever read from the environment, at provider
// construction. It is never placed in a config struct, never logged, and
// never written to disk.
const (
	TokenEnv   = "GOQAOA_CLOUD_TOKEN"
	APIRootEnv = "GOQAOA_CLOUD_API"
)

const DefaultAPIRoot = "https://api.ansatz.systems/qpu/v1"

type ProviderOpts struct {
	APIRoot   string        // service root; empty falls back to APIRootEnv then DefaultAPIRoot
	PollEvery time.Duration // job status poll period
	HTTP      *http.Client  // optional client override
}

var DefaultProviderOpts = ProviderOpts{
	PollEvery: 2 * time.Second,
}

// Provider is an authenticated connection to the remote device service.
type Provider struct {
	apiRoot string
	token   string
	poll    time.Duration
	client  *http.Client
}

func NewProvider(opts ProviderOpts) (*Provider, error) {
	token := os.Getenv(TokenEnv)
	if len(token) == 0 {
		return nil, errors.Wrapf(goqaoa.ErrNoToken, "set %s", TokenEnv)
	}

	apiRoot := opts.APIRoot
	if len(apiRoot) == 0 {
		apiRoot = os.Getenv(APIRootEnv)
	}
	if len(apiRoot) == 0 {
		apiRoot = DefaultAPIRoot
	}

	poll := opts.PollEvery
	if poll <= 0 {
		poll = DefaultProviderOpts.PollEvery
	}

	client := opts.HTTP
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &Provider{
		apiRoot: strings.TrimRight(apiRoot, "/"),
		token:   token,
		poll:    poll,
		client:  client,
	}, nil
}

// DeviceInfo describes one remote device as the service reports it.
type DeviceInfo struct {
	Name        string `json:"name"`
	NumQubits   int    `json:"num_qubits"`
	Simulator   bool   `json:"simulator"`
	Operational bool   `json:"operational"`
	PendingJobs int    `json:"pending_jobs"`
}

// Devices lists every device visible to this token.
func (pv *Provider) Devices(ctx context.Context) ([]DeviceInfo, error) {
	var devices []DeviceInfo
	if err := pv.getJSON(ctx, "/devices", &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// LeastBusy picks the operational hardware device with the fewest pending
// jobs among those offering at least minQubits qubits.
func (pv *Provider) LeastBusy(ctx context.Context, minQubits int) (*Device, error) {
	devices, err := pv.Devices(ctx)
	if err != nil {
		return nil, err
	}

	best := -1
	for i, di := range devices {
		if di.Simulator || !di.Operational || di.NumQubits < minQubits {
			continue
		}
		if best < 0 || di.PendingJobs < devices[best].PendingJobs {
			best = i
		}
	}
	if best < 0 {
		return nil, errors.Wrapf(goqaoa.ErrNoDevice, "no operational device with %d+ qubits", minQubits)
	}
	return &Device{pv: pv, info: devices[best]}, nil
}

// Device is a remote goqaoa.Backend.
type Device struct {
	pv   *Provider
	info DeviceInfo
}

func (dev *Device) Desig() string     { return dev.info.Name }
func (dev *Device) MaxQubits() int    { return dev.info.NumQubits }
func (dev *Device) IsSimulator() bool { return dev.info.Simulator }

type jobSubmit struct {
	Device string `json:"device"`
	QASM   string `json:"qasm"`
	Shots  int    `json:"shots"`
}

type jobStatus struct {
	ID     string           `json:"id"`
	Status string           `json:"status"` // "queued", "running", "completed", "failed", "cancelled"
	Error  string           `json:"error,omitempty"`
	Counts map[string]int64 `json:"counts,omitempty"`
}

// Run submits circ as an OpenQASM job and polls until the device returns a
// histogram, the job fails, or ctx is canceled.
//
// RunOpts.Seed has no effect here: hardware shots are not reproducible.
func (dev *Device) Run(ctx context.Context, circ *goqaoa.Circuit, opts goqaoa.RunOpts) (goqaoa.Counts, error) {
	if err := circ.Validate(); err != nil {
		return nil, err
	}
	if int(circ.NumQubits) > dev.MaxQubits() {
		return nil, goqaoa.ErrTooManyQubits
	}
	if opts.Shots <= 0 {
		return nil, goqaoa.ErrBadShotCount
	}

	qasm := strings.Builder{}
	if err := circ.WriteQASM(&qasm); err != nil {
		return nil, err
	}

	var job jobStatus
	err := dev.pv.postJSON(ctx, "/jobs", &jobSubmit{
		Device: dev.info.Name,
		QASM:   qasm.String(),
		Shots:  opts.Shots,
	}, &job)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(dev.pv.poll)
	defer ticker.Stop()

	for {
		switch job.Status {
		case "completed":
			counts := make(goqaoa.Counts, len(job.Counts))
			for bits, ni := range job.Counts {
				counts[goqaoa.Bitstring(bits)] = ni
			}
			return counts, nil
		case "failed", "cancelled":
			return nil, errors.Wrapf(goqaoa.ErrJobFailed, "job %s: %s", job.ID, job.Error)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		if err = dev.pv.getJSON(ctx, "/jobs/"+job.ID, &job); err != nil {
			return nil, err
		}
	}
}

func (pv *Provider) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pv.apiRoot+path, nil)
	if err != nil {
		return err
	}
	return pv.doJSON(req, out)
}

func (pv *Provider) postJSON(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pv.apiRoot+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return pv.doJSON(req, out)
}

func (pv *Provider) doJSON(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+pv.token)

	resp, err := pv.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("%s %s returned %s: %s",
			req.Method, req.URL.Path, resp.Status, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
