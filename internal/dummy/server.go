package dummy

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type ServerConfig struct {
	Port int

	// Scale multiplies every simulated delay; 0 means 1.
	Scale float64
}

func sleep(cfg ServerConfig, d time.Duration) {
	scale := cfg.Scale
	if scale == 0 {
		scale = 1
	}
	time.Sleep(time.Duration(float64(d) * scale))
}

// NewMux returns the target endpoints: /fast, /medium, /slow, /spike, /error.
func NewMux(cfg ServerConfig) *http.ServeMux {
	mux := http.NewServeMux()

	// 10-50ms
	mux.HandleFunc("/fast", func(w http.ResponseWriter, r *http.Request) {
		sleep(cfg, time.Duration(rand.Intn(40)+10)*time.Millisecond)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Fast response"))
	})

	// 100-300ms
	mux.HandleFunc("/medium", func(w http.ResponseWriter, r *http.Request) {
		sleep(cfg, time.Duration(rand.Intn(200)+100)*time.Millisecond)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Medium response"))
	})

	// 1s-2s, good for watching rps truncation and timeouts
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		sleep(cfg, time.Duration(rand.Intn(1000)+1000)*time.Millisecond)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Slow response"))
	})

	// usually fast, 5% of calls take 2s
	mux.HandleFunc("/spike", func(w http.ResponseWriter, r *http.Request) {
		if rand.Float32() < 0.05 {
			sleep(cfg, 2*time.Second)
		} else {
			sleep(cfg, 20*time.Millisecond)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Spikey response"))
	})

	// 20% 500, 20% 429, rest 200
	mux.HandleFunc("/error", func(w http.ResponseWriter, r *http.Request) {
		rnd := rand.Float32()
		if rnd < 0.2 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("500 Internal Server Error"))
		} else if rnd < 0.4 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("429 Too Many Requests"))
		} else {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		}
	})

	return mux
}

// Start serves NewMux in the background and returns the server so the caller
// can shut it down. A listen failure (port in use, no permission) is sent on
// the returned channel; a clean Close sends nothing.
func Start(cfg ServerConfig) (*http.Server, <-chan error) {
	addr := fmt.Sprintf(":%d", cfg.Port)
	fmt.Printf("👻 Dummy Server running on http://localhost%s\n", addr)
	fmt.Println("   Endpoints: /fast, /medium, /slow, /spike, /error")

	server := &http.Server{
		Addr:    addr,
		Handler: NewMux(cfg),
	}

	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).WithField("addr", addr).Error("dummy server failed")
			errc <- err
		}
	}()
	return server, errc
}
