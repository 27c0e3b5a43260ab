package serverutils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"github.com/gofiber/fiber/v2"
)

const SignatureHeader = "X-Line-Signature"

// ComputeSignature is base64(HMAC-SHA256(secret, body))
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignatureMiddleware verifies webhook bodies. Verification is skipped when
// secret is empty, as in local development.
func SignatureMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if secret == "" {
			return ctx.Next()
		}

		given, err := base64.StdEncoding.DecodeString(ctx.Get(SignatureHeader))
		if err != nil || len(given) == 0 {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid signature"))
		}

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(ctx.Body())
		if !hmac.Equal(given, mac.Sum(nil)) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid signature"))
		}

		return ctx.Next()
	}
}
