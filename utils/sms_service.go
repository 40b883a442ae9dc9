package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SMSService sends OTP codes through a bulk-SMS HTTP gateway
type SMSService struct {
	Username string
	Password string
	SenderID string
	APIPath  string
	Client   *http.Client
}

// SMSResponse represents the response from the SMS gateway
type SMSResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		MessageID string `json:"message_id"`
		Cost      string `json:"cost"`
	} `json:"data"`
}

// NewSMSService creates a new SMS service instance from environment config
func NewSMSService() *SMSService {
	return &SMSService{
		Username: os.Getenv("SMS_USERNAME"),
		Password: os.Getenv("SMS_PASSWORD"),
		SenderID: os.Getenv("SMS_SENDER_ID"),
		APIPath:  os.Getenv("SMS_API_URL"),
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendOTP sends an OTP via SMS. When the gateway is not configured the code
// is logged instead so the reset flow still works in development.
func (s *SMSService) SendOTP(phoneNumber, otp string) error {
	deliveryRef := uuid.NewString()

	if s.APIPath == "" || s.Username == "" {
		log.Printf("SMS gateway not configured; OTP for %s (ref %s): %s",
			MaskIdentifier(phoneNumber), deliveryRef, otp)
		return nil
	}

	params := url.Values{}
	params.Set("username", s.Username)
	params.Set("password", s.Password)
	params.Set("sender", s.SenderID)
	params.Set("destination", strings.TrimPrefix(phoneNumber, "+"))
	params.Set("message", fmt.Sprintf("Your password reset code is %s. It expires in 5 minutes.", otp))
	params.Set("reference", deliveryRef)

	resp, err := s.Client.Get(s.APIPath + "?" + params.Encode())
	if err != nil {
		return fmt.Errorf("failed to reach SMS gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read SMS gateway response: %w", err)
	}

	var smsResp SMSResponse
	if err := json.Unmarshal(body, &smsResp); err != nil {
		return fmt.Errorf("unexpected SMS gateway response: %s", string(body))
	}

	if smsResp.Status != "success" {
		return fmt.Errorf("SMS gateway rejected message: %s", smsResp.Message)
	}

	log.Printf("OTP SMS dispatched to %s (ref %s, message %s)",
		MaskIdentifier(phoneNumber), deliveryRef, smsResp.Data.MessageID)
	return nil
}
