package cloud_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ansatz-systems/goqaoa/goqaoa"
	"github.com/ansatz-systems/goqaoa/libqaoa/cloud"
)

var testDevices = []cloud.DeviceInfo{
	{Name: "ansatz_osprey", NumQubits: 32, Operational: true, PendingJobs: 4},
	{Name: "ansatz_heron", NumQubits: 16, Operational: true, PendingJobs: 1},
	{Name: "ansatz_sim", NumQubits: 48, Simulator: true, Operational: true},
	{Name: "ansatz_falcon", NumQubits: 7, Operational: false},
}

func newDeviceService(t *testing.T, jobs http.HandlerFunc) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/devices", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(testDevices)
	})
	if jobs != nil {
		mux.HandleFunc("/jobs", jobs)
		mux.HandleFunc("/jobs/", jobs)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(t *testing.T, apiRoot string) *cloud.Provider {
	pv, err := cloud.NewProvider(cloud.ProviderOpts{
		APIRoot:   apiRoot,
		PollEvery: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	return pv
}

func testCircuit(t *testing.T, numQubits int32) *goqaoa.Circuit {
	circ, err := goqaoa.NewCircuit(numQubits)
	if err != nil {
		t.Fatalf("NewCircuit failed: %v", err)
	}
	for q := int32(0); q < numQubits; q++ {
		circ.AddH(q)
	}
	circ.AddRZZ(0, 1, 0.5)
	circ.AddRX(0, 1.0)
	circ.MeasureAll()
	return circ
}

func TestProviderNoToken(t *testing.T) {
	t.Setenv(cloud.TokenEnv, "")
	if _, err := cloud.NewProvider(cloud.ProviderOpts{}); !errors.Is(err, goqaoa.ErrNoToken) {
		t.Fatalf("NewProvider returned %v, wanted ErrNoToken", err)
	}
}

func TestProviderAuth(t *testing.T) {
	t.Setenv(cloud.TokenEnv, "wrong")
	srv := newDeviceService(t, nil)
	pv := newTestProvider(t, srv.URL)

	_, err := pv.Devices(context.Background())
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("Devices with a bad token returned %v, wanted a 401 error", err)
	}
}

func TestLeastBusy(t *testing.T) {
	t.Setenv(cloud.TokenEnv, "test-token")
	srv := newDeviceService(t, nil)
	pv := newTestProvider(t, srv.URL)
	ctx := context.Background()

	devices, err := pv.Devices(ctx)
	if err != nil || len(devices) != 4 {
		t.Fatalf("Devices returned (%d, %v), wanted 4 devices", len(devices), err)
	}

	// The simulator and the down device never qualify, so the 16 qubit
	// device wins on pending jobs until the bound rules it out.
	dev, err := pv.LeastBusy(ctx, 1)
	if err != nil {
		t.Fatalf("LeastBusy failed: %v", err)
	}
	if dev.Desig() != "ansatz_heron" || dev.MaxQubits() != 16 || dev.IsSimulator() {
		t.Fatalf("LeastBusy picked %s", dev.Desig())
	}

	dev, err = pv.LeastBusy(ctx, 20)
	if err != nil || dev.Desig() != "ansatz_osprey" {
		t.Fatalf("LeastBusy(20) picked (%s, %v), wanted ansatz_osprey", dev.Desig(), err)
	}

	if _, err = pv.LeastBusy(ctx, 64); !errors.Is(err, goqaoa.ErrNoDevice) {
		t.Fatalf("LeastBusy(64) returned %v, wanted ErrNoDevice", err)
	}
}

func TestDeviceRun(t *testing.T) {
	t.Setenv(cloud.TokenEnv, "test-token")

	var polls atomic.Int32
	jobs := func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		if r.Method == http.MethodPost {
			var submitted struct {
				Device string `json:"device"`
				QASM   string `json:"qasm"`
				Shots  int    `json:"shots"`
			}
			if err := json.NewDecoder(r.Body).Decode(&submitted); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if submitted.Device != "ansatz_heron" || submitted.Shots != 128 ||
				!strings.HasPrefix(submitted.QASM, "OPENQASM 2.0;") ||
				!strings.Contains(submitted.QASM, "rzz(") {
				http.Error(w, "bad job", http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"id": "job-1", "status": "queued"})
			return
		}
		if polls.Add(1) < 2 {
			json.NewEncoder(w).Encode(map[string]interface{}{"id": "job-1", "status": "running"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "job-1",
			"status": "completed",
			"counts": map[string]int64{"01": 64, "10": 64},
		})
	}

	srv := newDeviceService(t, jobs)
	pv := newTestProvider(t, srv.URL)
	ctx := context.Background()

	dev, err := pv.LeastBusy(ctx, 1)
	if err != nil {
		t.Fatalf("LeastBusy failed: %v", err)
	}

	counts, err := dev.Run(ctx, testCircuit(t, 2), goqaoa.RunOpts{Shots: 128})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(counts) != 2 || counts["01"] != 64 || counts["10"] != 64 {
		t.Fatalf("Run returned %v", counts)
	}
	if polls.Load() < 2 {
		t.Fatalf("device was polled %d times, wanted 2+", polls.Load())
	}
}

func TestDeviceRunFailure(t *testing.T) {
	t.Setenv(cloud.TokenEnv, "test-token")

	jobs := func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]interface{}{"id": "job-9", "status": "queued"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "job-9",
			"status": "failed",
			"error":  "calibration drift",
		})
	}

	srv := newDeviceService(t, jobs)
	pv := newTestProvider(t, srv.URL)
	ctx := context.Background()

	dev, err := pv.LeastBusy(ctx, 1)
	if err != nil {
		t.Fatalf("LeastBusy failed: %v", err)
	}

	_, err = dev.Run(ctx, testCircuit(t, 2), goqaoa.RunOpts{Shots: 16})
	if !errors.Is(err, goqaoa.ErrJobFailed) || !strings.Contains(err.Error(), "calibration drift") {
		t.Fatalf("Run returned %v, wanted ErrJobFailed with server detail", err)
	}

	if _, err = dev.Run(ctx, testCircuit(t, 2), goqaoa.RunOpts{}); !errors.Is(err, goqaoa.ErrBadShotCount) {
		t.Fatalf("Run with no shots returned %v, wanted ErrBadShotCount", err)
	}
	if _, err = dev.Run(ctx, testCircuit(t, 17), goqaoa.RunOpts{Shots: 16}); !errors.Is(err, goqaoa.ErrTooManyQubits) {
		t.Fatalf("Run past the device width returned %v, wanted ErrTooManyQubits", err)
	}
}

func TestDeviceRunCancel(t *testing.T) {
	t.Setenv(cloud.TokenEnv, "test-token")

	jobs := func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "job-2", "status": "running"})
	}
	srv := newDeviceService(t, jobs)
	pv := newTestProvider(t, srv.URL)

	dev, err := pv.LeastBusy(context.Background(), 1)
	if err != nil {
		t.Fatalf("LeastBusy failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()
	if _, err = dev.Run(ctx, testCircuit(t, 2), goqaoa.RunOpts{Shots: 16}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run returned %v, wanted deadline exceeded", err)
	}
}
