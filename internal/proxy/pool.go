package proxy

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// Pool hands out proxy URLs round-robin. An empty pool returns "".
type Pool interface {
	Get() string
}

type pool struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewPool validates the configured proxies against probeURL and keeps the
// working ones. A nil/empty proxy list yields a pool that always returns "".
func NewPool(ctx context.Context, proxies []string, probeURL string) Pool {
	if len(proxies) == 0 {
		return &pool{}
	}

	log.Infof("🔄 Testing %d proxies...", len(proxies))

	validCh := make(chan string, len(proxies))
	semaphore := make(chan struct{}, 10)
	var wg sync.WaitGroup

	for _, proxyURL := range proxies {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if probe(ctx, addr, probeURL) {
				validCh <- addr
			} else {
				log.Infof("❌ Proxy %s is not working, skipping", addr)
			}
		}(proxyURL)
	}

	wg.Wait()
	close(validCh)

	valid := make([]string, 0, len(proxies))
	for addr := range validCh {
		valid = append(valid, addr)
	}

	log.Infof("✅ Proxy pool ready: %d working out of %d tested", len(valid), len(proxies))
	return &pool{proxies: valid}
}

// Get returns the next proxy URL in round-robin fashion.
func (p *pool) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	addr := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)
	return addr
}

func probe(ctx context.Context, proxyURL, probeURL string) bool {
	httpClient := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0).
		SetProxy(proxyURL).
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})

	resp, err := httpClient.R().
		SetContext(ctx).
		Get(probeURL)

	if err != nil {
		log.Debugf("proxy probe failed for %s: %v", proxyURL, err)
		return false
	}
	return !resp.IsError()
}
