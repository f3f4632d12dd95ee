package dispatch

import (
	"rugged-weave-auth/constants"
	otpModel "rugged-weave-auth/models/otp"
	"rugged-weave-auth/telemetry"
	"rugged-weave-auth/utils"

	"github.com/gofiber/fiber/v2"
)

// OtpRequest is one dispatch unit of work: the raw email as submitted, the
// upstream-generated code, and the purpose tag.
type OtpRequest struct {
	Email   string
	Code    string
	Purpose otpModel.OTPPurpose
}

// Dispatcher sequences a dispatch: normalize, hash, publish "requested",
// deliver, publish the terminal event. Every dispatch yields exactly one
// requested event and one terminal event sharing the same email hash and
// purpose.
type Dispatcher struct {
	publisher telemetry.Publisher
	transport Transport
}

func NewDispatcher(publisher telemetry.Publisher, transport Transport) *Dispatcher {
	return &Dispatcher{publisher: publisher, transport: transport}
}

// HandleOTPDispatch delivers one code. Telemetry failures are swallowed by
// the publisher; delivery failures are returned to the caller after the
// dispatch_failed event is emitted.
func (d *Dispatcher) HandleOTPDispatch(req OtpRequest, c *fiber.Ctx) error {
	email := utils.NormalizeEmail(req.Email)
	emailHash := utils.HashIdentifier(email)

	payload := map[string]interface{}{
		"email_hash": emailHash,
		"type":       string(req.Purpose),
	}
	if c != nil {
		if ip := clientIP(c); ip != "" {
			payload["ip"] = ip
		}
		if ua := c.Get("User-Agent"); ua != "" {
			payload["user_agent"] = ua
		}
	}

	d.publisher.Publish(constants.EventOTPRequested, payload)

	err := d.transport.Send(DeliveryPayload{
		Email: email,
		OTP:   req.Code,
		Type:  string(req.Purpose),
	})
	if err != nil {
		failed := make(map[string]interface{}, len(payload)+1)
		for k, v := range payload {
			failed[k] = v
		}
		failed["reason"] = failureReason(err)
		d.publisher.Publish(constants.EventOTPDispatchFailed, failed)
		return err
	}

	d.publisher.Publish(constants.EventOTPDispatched, payload)
	return nil
}

// clientIP prefers the proxy-supplied client IP header and falls back to
// the forwarded-for header.
func clientIP(c *fiber.Ctx) string {
	if ip := c.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	return c.Get("X-Forwarded-For")
}

func failureReason(err error) string {
	if err == nil || err.Error() == "" {
		return "unknown"
	}
	return err.Error()
}
