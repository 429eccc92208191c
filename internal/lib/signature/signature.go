// Package signature проверяет HMAC-подписи платёжного шлюза.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign возвращает hex HMAC-SHA256 от payload.
func Sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// PaymentPayload собирает строку, которую подписывает шлюз при оплате подписки.
func PaymentPayload(paymentID, subscriptionID string) string {
	return paymentID + "|" + subscriptionID
}

// Verify сравнивает ожидаемую подпись с полученной за постоянное время.
func Verify(secret, payload, signature string) bool {
	if signature == "" {
		return false
	}
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
