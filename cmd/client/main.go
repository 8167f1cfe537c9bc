// Demo client showing how a caller mirrors the server's rate limits locally:
// the shadow limiter short-circuits requests that would obviously be
// rejected and shows a countdown instead, while the server stays the only
// real enforcement point.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"todovault/pkg/shadowlimit"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "todovault API base URL")
	email := flag.String("email", "demo@example.com", "login email")
	password := flag.String("password", "wrong-password", "login password")
	attempts := flag.Int("attempts", 8, "how many logins to attempt")
	flag.Parse()

	statePath := filepath.Join(stateDir(), "todovault-limits.json")
	limiter := shadowlimit.New(statePath, shadowlimit.DefaultPolicies())

	for i := 1; i <= *attempts; i++ {
		if prediction := limiter.Check("login"); !prediction.Allowed {
			fmt.Printf("attempt %2d: skipped locally, retry in %ds\n", i, seconds(prediction.RetryAfter))
			time.Sleep(time.Second)
			continue
		}

		status, retryAfter := postLogin(*serverURL, *email, *password)
		switch {
		case status == http.StatusOK:
			fmt.Printf("attempt %2d: logged in\n", i)
			limiter.RecordSuccess("login")
			return
		case status == http.StatusTooManyRequests:
			// The server is authoritative; the local prediction was
			// just late.
			fmt.Printf("attempt %2d: rate limited by server, retry in %ds\n", i, retryAfter)
		default:
			fmt.Printf("attempt %2d: rejected (status %d)\n", i, status)
		}

		time.Sleep(time.Second)
	}
}

func postLogin(baseURL, email, password string) (status, retryAfter int) {
	body, _ := json.Marshal(loginRequest{Email: email, Password: password})

	resp, err := http.Post(baseURL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("request failed: %v", err)
		return 0, 0
	}
	defer resp.Body.Close()

	var parsed struct {
		RetryAfter int `json:"retryAfter"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return resp.StatusCode, parsed.RetryAfter
}

func stateDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return os.TempDir()
}

func seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
