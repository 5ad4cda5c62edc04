// MODUL: server/routes
// ZWECK: HTTP-Router mit allen Embedding- und Probe-Endpoints
// INPUT: clip.Handle, clip.Encoder, metrics.Recorder
// OUTPUT: Konfigurierter gin-Router
// NEBENEFFEKTE: Registriert HTTP-Routen
// ABHAENGIGKEITEN: gin, gin-contrib/cors, envconfig
// HINWEISE: Requests von nicht-lokalen Hosts werden auf Loopback-
//           Listenern blockiert

package server

import (
	"net"
	"net/http"
	"net/netip"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/7blacky7/clipserve/clip"
	"github.com/7blacky7/clipserve/envconfig"
	"github.com/7blacky7/clipserve/metrics"
	"github.com/7blacky7/clipserve/version"
)

// Server buendelt die Abhaengigkeiten aller HTTP-Handler
type Server struct {
	addr    net.Addr
	handle  *clip.Handle
	encoder *clip.Encoder
	rec     *metrics.Recorder
}

// NewServer erstellt einen Server ueber einem geteilten Handle
func NewServer(handle *clip.Handle, encoder *clip.Encoder, rec *metrics.Recorder) *Server {
	return &Server{
		handle:  handle,
		encoder: encoder,
		rec:     rec,
	}
}

// isLocalIP prueft ob die IP-Adresse zu einem lokalen Interface gehoert
func isLocalIP(ip netip.Addr) bool {
	if interfaces, err := net.Interfaces(); err == nil {
		for _, iface := range interfaces {
			addrs, err := iface.Addrs()
			if err != nil {
				continue
			}

			for _, a := range addrs {
				if parsed, _, err := net.ParseCIDR(a.String()); err == nil {
					if parsed.String() == ip.String() {
						return true
					}
				}
			}
		}
	}

	return false
}

// allowedHost prueft ob der Host erlaubt ist
func allowedHost(host string) bool {
	host = strings.ToLower(host)

	if host == "" || host == "localhost" {
		return true
	}

	if hostname, err := os.Hostname(); err == nil && host == strings.ToLower(hostname) {
		return true
	}

	tlds := []string{
		"localhost",
		"local",
		"internal",
	}

	// Pruefe ob der Host eine lokale TLD hat
	for _, tld := range tlds {
		if strings.HasSuffix(host, "."+tld) {
			return true
		}
	}

	return false
}

// allowedHostsMiddleware blockiert Anfragen von nicht erlaubten Hosts
func allowedHostsMiddleware(addr net.Addr) gin.HandlerFunc {
	return func(c *gin.Context) {
		if addr == nil {
			c.Next()
			return
		}

		if addr, err := netip.ParseAddrPort(addr.String()); err == nil && !addr.Addr().IsLoopback() {
			c.Next()
			return
		}

		host, _, err := net.SplitHostPort(c.Request.Host)
		if err != nil {
			host = c.Request.Host
		}

		if addr, err := netip.ParseAddr(host); err == nil {
			if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() || isLocalIP(addr) {
				c.Next()
				return
			}
		}

		if allowedHost(host) {
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}

			c.Next()
			return
		}

		c.AbortWithStatus(http.StatusForbidden)
	}
}

// GenerateRoutes erstellt und konfiguriert den HTTP-Router
func (s *Server) GenerateRoutes() http.Handler {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowWildcard = true
	corsConfig.AllowBrowserExtensions = true
	corsConfig.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"User-Agent",
		"Accept",
		"X-Requested-With",
	}
	corsConfig.AllowOrigins = envconfig.AllowedOrigins()

	r := gin.Default()
	r.HandleMethodNotAllowed = true
	r.Use(
		cors.New(corsConfig),
		allowedHostsMiddleware(s.addr),
	)

	// General
	r.HEAD("/", func(c *gin.Context) { c.String(http.StatusOK, "clipserve is running") })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "clipserve is running") })
	r.HEAD("/api/version", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"version": version.Version}) })
	r.GET("/api/version", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"version": version.Version}) })

	// Probes
	r.GET("/healthz", s.HealthHandler)
	r.GET("/readyz", s.ReadyHandler)

	// Metrics
	if s.rec != nil {
		r.GET("/metrics", gin.WrapH(s.rec.Handler()))
	}

	// Embedding
	r.POST("/embed/image", s.EmbedImageHandler)
	r.POST("/embed/images", s.EmbedImagesHandler)
	r.POST("/embed/text", s.EmbedTextHandler)
	r.POST("/embed/texts", s.EmbedTextsHandler)

	// Similarity
	r.POST("/api/similarity", s.SimilarityHandler)

	return r
}
