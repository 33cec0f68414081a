// Package clinicapi provides a typed client for the clinic backend REST API:
// doctor listings, doctor profiles, schedule availability and appointment
// creation. Each method performs exactly one request; retry policy belongs to
// the caller.
package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vietclinic/chatbot-service/pkg/logging"
)

const defaultPageSize = 10

// Client is an HTTP client for the clinic backend.
type Client struct {
	baseURL      string
	defaultToken string
	httpClient   *http.Client
	logger       *logging.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a clinic backend client. baseURL is the API root
// (e.g. "http://localhost:5000/api/v1"); defaultToken authenticates requests
// that do not carry a per-user token.
func NewClient(baseURL, defaultToken string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      baseURL,
		defaultToken: defaultToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logging.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ListDoctors fetches up to one page of doctor profiles, optionally filtered
// by specialty.
func (c *Client) ListDoctors(ctx context.Context, specialty string) (*DoctorListResponse, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(defaultPageSize))
	if specialty != "" {
		params.Set("specialties", specialty)
	}

	var result DoctorListResponse
	if err := c.get(ctx, "doctor-profile/all", params, "", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListSpecialties fetches the available medical specialties.
func (c *Client) ListSpecialties(ctx context.Context) (*SpecialtyListResponse, error) {
	var result SpecialtyListResponse
	if err := c.get(ctx, "doctor-profile/specialties", nil, "", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetDoctorProfile fetches a single doctor profile by canonical hex id.
func (c *Client) GetDoctorProfile(ctx context.Context, doctorID string) (*DoctorProfileResponse, error) {
	var result DoctorProfileResponse
	if err := c.get(ctx, "doctor-profile/"+doctorID, nil, "", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetAvailability fetches a doctor's schedule window. endDate may be empty
// for a single-day window.
func (c *Client) GetAvailability(ctx context.Context, doctorID, startDate, endDate string) (*AvailabilityResponse, error) {
	params := url.Values{}
	params.Set("startDate", startDate)
	if doctorID != "" {
		params.Set("id", doctorID)
	}
	if endDate != "" {
		params.Set("endDate", endDate)
	}

	var result AvailabilityResponse
	if err := c.get(ctx, "work-schedule/doctor/availability", params, "", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateAppointment books an appointment. userToken, when non-empty,
// overrides the client's default token.
func (c *Client) CreateAppointment(ctx context.Context, req AppointmentRequest, userToken string) (*AppointmentResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("clinicapi: marshal appointment request: %w", err)
	}

	c.logger.Debug("creating appointment", "doctor_id", req.DoctorID, "date", req.AppointmentDate, "start", req.StartTime)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/appointment/create", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("clinicapi: create request: %w", err)
	}
	c.setHeaders(httpReq, userToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("clinicapi: appointment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("clinicapi: appointment create failed with status %d: %s", resp.StatusCode, string(detail))
	}

	var result AppointmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("clinicapi: decode appointment response: %w", err)
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, userToken string, out any) error {
	target := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("clinicapi: create request: %w", err)
	}
	c.setHeaders(req, userToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("clinicapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("clinicapi: %s failed with status %d: %s", endpoint, resp.StatusCode, string(detail))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("clinicapi: decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, userToken string) {
	token := c.defaultToken
	if userToken != "" {
		token = userToken
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
