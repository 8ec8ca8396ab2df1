package identity

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"linktrace/internal/domain"
)

// Curated user-agent pools. Static configuration data; keep them realistic
// and current rather than generating strings.
var desktopUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36 Edg/125.0.0.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:126.0) Gecko/20100101 Firefox/126.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
}

var mobileUserAgents = []string{
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) CriOS/125.0.6422.80 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (Linux; Android 13; SM-S918B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (Linux; Android 14; SM-G998B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36",
}

const (
	desktopBaseWidth  = 1366
	desktopBaseHeight = 768
	mobileBaseWidth   = 375
	mobileBaseHeight  = 812

	// Both viewport axes are jittered independently per request by a
	// uniform offset in [-viewportJitter, +viewportJitter].
	viewportJitter = 10
)

// Selector picks a fresh browsing identity per resolution attempt. The
// random source is injectable so tests can pin jitter and class selection.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSelector(src rand.Source) *Selector {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Selector{rng: rand.New(src)}
}

// Select returns an identity for the given preference. "desktop" and
// "mobile" are honored deterministically; anything else picks a class
// uniformly at random.
func (s *Selector) Select(preference string) domain.IdentityProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	class := domain.DeviceClass(strings.ToLower(strings.TrimSpace(preference)))
	if class != domain.DeviceDesktop && class != domain.DeviceMobile {
		if s.rng.Intn(2) == 0 {
			class = domain.DeviceDesktop
		} else {
			class = domain.DeviceMobile
		}
	}

	if class == domain.DeviceMobile {
		return domain.IdentityProfile{
			UserAgent:         mobileUserAgents[s.rng.Intn(len(mobileUserAgents))],
			DeviceClass:       domain.DeviceMobile,
			ViewportWidth:     s.jitter(mobileBaseWidth),
			ViewportHeight:    s.jitter(mobileBaseHeight),
			IsMobile:          true,
			HasTouch:          true,
			DeviceScaleFactor: 2,
		}
	}

	return domain.IdentityProfile{
		UserAgent:         desktopUserAgents[s.rng.Intn(len(desktopUserAgents))],
		DeviceClass:       domain.DeviceDesktop,
		ViewportWidth:     s.jitter(desktopBaseWidth),
		ViewportHeight:    s.jitter(desktopBaseHeight),
		IsMobile:          false,
		HasTouch:          false,
		DeviceScaleFactor: 1,
	}
}

func (s *Selector) jitter(base int) int {
	return base + s.rng.Intn(2*viewportJitter+1) - viewportJitter
}
