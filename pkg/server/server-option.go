package server

import (
	"log/slog"
	"slices"

	"github.com/calcbridge/go-mcp-host/internal/logging"
	"github.com/calcbridge/go-mcp-host/pkg/protocol"
	stdiotransport "github.com/calcbridge/go-mcp-host/pkg/transport/stdio"
)

// ServerOption is a function that configures a server
type ServerOption func(*Server)

// WithServerID sets the server ID
func WithServerID(id string) ServerOption {
	return func(s *Server) {
		s.ID = id
	}
}

// WithServerInfo merges entries into the server information
func WithServerInfo(info map[string]string) ServerOption {
	return func(s *Server) {
		for k, v := range info {
			s.Info[k] = v
		}
	}
}

// WithServerName sets the server name
func WithServerName(name string) ServerOption {
	return func(s *Server) {
		s.Name = name
	}
}

// WithServerVersion sets the server version
func WithServerVersion(version string) ServerOption {
	return func(s *Server) {
		s.Version = version
	}
}

// WithLogger sets the log level for the server's logger
func WithLogger(level slog.Level) ServerOption {
	lf := logging.NewLoggerFactory()
	lf.SetLevel(level)
	return func(s *Server) {
		s.loggerFactory = lf
	}
}

// WithLoggerFactory sets the logger factory used by the server
func WithLoggerFactory(factory *logging.LoggerFactory) ServerOption {
	return func(s *Server) {
		s.loggerFactory = factory
	}
}

// WithTransportRegistry specifies a custom transport registry to use
func WithTransportRegistry(registry *protocol.TransportRegistry) ServerOption {
	return func(s *Server) {
		s.transportRegistry = registry
	}
}

// WithTransports specifies which transports the server should support
func WithTransports(transportTypes ...string) ServerOption {
	return func(s *Server) {
		if s.transportRegistry == nil {
			s.transportRegistry = protocol.DefaultTransportRegistry
		}

		for _, trsType := range transportTypes {
			if trsType == protocol.TransportTypeStdio {
				stdiotransport.RegisterTransport(s.transportRegistry)
			}
		}
	}
}

// WithProtocolVersion adds a supported protocol version
func WithProtocolVersion(version protocol.ProtocolVersion) ServerOption {
	return func(s *Server) {
		if !slices.Contains(s.SupportedVersions, version) {
			s.SupportedVersions = append(s.SupportedVersions, version)
		}
	}
}

// WithTool registers a tool on the server
func WithTool(tool *Tool) ServerOption {
	return func(s *Server) {
		if err := s.tools.Register(tool); err != nil {
			logging.Error(s.logger, "failed to register tool", "tool", tool.Name, "error", err)
		}
	}
}
