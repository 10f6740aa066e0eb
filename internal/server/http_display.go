package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayPromptInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Printf("Serving variant: %s\n", s.Variant)
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health    - Health check")
	fmt.Println("  GET  /stats     - Server statistics")
	fmt.Printf("  POST %-22s - Generate job description\n", Route(s.Variant))
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Printf("Include 'X-API-Key: <your-key>' header in requests to %s\n", Route(s.Variant))
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f KB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/1024)
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayPromptInfo shows whether prompt files are reloaded on change
func (s *Server) displayPromptInfo() {
	if s.promptWatcher != nil {
		fmt.Printf("Prompt reload: ENABLED (%d files watched)\n", len(s.promptWatcher.Files()))
	}
}
