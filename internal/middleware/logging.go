package middleware

import (
	"net/http"

	"github.com/2beens/sportsee/pkg"

	log "github.com/sirupsen/logrus"
)

// LogRequest traces every request with its route name. The bearer token is never logged.
func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if log.IsLevelEnabled(log.TraceLevel) {
				clientIP, _ := pkg.ReadUserIP(r)
				log.WithFields(log.Fields{
					"method":    r.Method,
					"route":     routeName(r),
					"client_ip": clientIP,
					"has_token": BearerToken(r) != "",
				}).Tracef(" ====> request path: [%s] [UA: %s]", r.URL.Path, r.Header.Get("User-Agent"))
			}
			next.ServeHTTP(w, r)
		})
	}
}
