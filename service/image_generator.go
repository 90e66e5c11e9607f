package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"textile-studio/repository"
	"textile-studio/utils"
)

const (
	minPromptLength = 3
	maxPromptLength = 500
	quotaWindow     = 24 * time.Hour
)

// GenerationResult is the outcome of an AI design request
type GenerationResult struct {
	ImageURL     string `json:"imageUrl,omitempty"`
	Recycled     bool   `json:"recycled"`
	Error        string `json:"error,omitempty"`
	LimitReached bool   `json:"limitReached"`
	Remaining    int    `json:"remaining"`
}

// ImageGeneratorInterface defines the contract for AI design generation
type ImageGeneratorInterface interface {
	Generate(ctx context.Context, userID, prompt string) (*GenerationResult, error)
}

// ImageGenerator calls an image generation endpoint with a per-user daily quota.
// A prompt that was generated before is answered from history and is free.
type ImageGenerator struct {
	endpoint string
	client   *http.Client
	store    repository.GenerationRepositoryInterface
	quota    int
	now      func() time.Time
	users    userLocks
}

// userLocks serializes the generations of each user so the quota check and
// the recorded generation cannot interleave. Entries live while held.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

func (u *userLocks) lock(userID string) (unlock func()) {
	u.mu.Lock()
	if u.locks == nil {
		u.locks = make(map[string]*userLock)
	}
	l, ok := u.locks[userID]
	if !ok {
		l = &userLock{}
		u.locks[userID] = l
	}
	l.refs++
	u.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		u.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(u.locks, userID)
		}
		u.mu.Unlock()
	}
}

func (u *userLocks) len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.locks)
}

var _ ImageGeneratorInterface = (*ImageGenerator)(nil)

func NewImageGenerator(endpoint string, client *http.Client, store repository.GenerationRepositoryInterface, quota int) *ImageGenerator {
	if client == nil {
		client = &http.Client{Timeout: 90 * time.Second}
	}
	return &ImageGenerator{
		endpoint: endpoint,
		client:   client,
		store:    store,
		quota:    quota,
		now:      time.Now,
	}
}

type generateResponse struct {
	ImageURL string `json:"imageUrl"`
	URL      string `json:"url"`
	Data     []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Generate returns an image for prompt. When the quota is spent the result
// has LimitReached set and the error is ErrQuotaExceeded.
func (g *ImageGenerator) Generate(ctx context.Context, userID, prompt string) (*GenerationResult, error) {
	prompt = strings.TrimSpace(prompt)
	if strings.TrimSpace(userID) == "" {
		return nil, invalid("userId", "is required")
	}
	if n := utf8.RuneCountInString(prompt); n < minPromptLength || n > maxPromptLength {
		return nil, invalid("prompt", "must be between %d and %d characters", minPromptLength, maxPromptLength)
	}

	unlock := g.users.lock(userID)
	defer unlock()

	used, err := g.store.CountGenerationsSince(ctx, userID, g.now().Add(-quotaWindow))
	if err != nil {
		return nil, err
	}
	remaining := g.quota - used
	if remaining < 0 {
		remaining = 0
	}

	if url, ok, err := g.store.FindRecycled(ctx, prompt); err != nil {
		log.Printf("⚠️  ImageGenerator: history lookup failed: %v", err)
	} else if ok {
		if err := g.store.RecordGeneration(ctx, userID, prompt, url, true); err != nil {
			log.Printf("⚠️  ImageGenerator: failed to record recycled generation: %v", err)
		}
		log.Printf("♻️  ImageGenerator: recycled image for user %s", utils.MaskToken(userID))
		return &GenerationResult{ImageURL: url, Recycled: true, Remaining: remaining}, nil
	}

	if remaining == 0 {
		log.Printf("⚠️  ImageGenerator: quota reached for user %s", utils.MaskToken(userID))
		return &GenerationResult{
			Error:        fmt.Sprintf("daily limit of %d generations reached", g.quota),
			LimitReached: true,
		}, ErrQuotaExceeded
	}

	url, err := g.call(ctx, prompt)
	if err != nil {
		return &GenerationResult{Error: "image generation failed", Remaining: remaining}, err
	}
	if err := g.store.RecordGeneration(ctx, userID, prompt, url, false); err != nil {
		return nil, err
	}

	log.Printf("✅ ImageGenerator: generated image for user %s", utils.MaskToken(userID))
	return &GenerationResult{ImageURL: url, Remaining: remaining - 1}, nil
}

func (g *ImageGenerator) call(ctx context.Context, prompt string) (string, error) {
	if g.endpoint == "" {
		return "", errors.New("image generation endpoint is not configured")
	}
	body, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read generation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation endpoint returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}
	switch {
	case out.ImageURL != "":
		return out.ImageURL, nil
	case out.URL != "":
		return out.URL, nil
	case len(out.Data) > 0 && out.Data[0].URL != "":
		return out.Data[0].URL, nil
	}
	return "", errors.New("generation response has no image url")
}
