package server

import "time"

const (
	cookieName       = "learnhub_session"
	sessionTTL       = 7 * 24 * time.Hour
	loginRateWindow  = 1 * time.Minute
	loginRateMaxHits = 10
	storeTimeout     = 5 * time.Second
	healthTimeout    = 2 * time.Second
	maxBodyBytes     = 1 << 20
)
