package event

import "github.com/shandysiswandi/otpgate/internal/pkg/aead"

const SMSDispatchDestination string = "otp.sms.dispatch"
const SMSDispatchConsumerNotification string = "otp.sms.dispatch.notification"

// SMSDispatchMessage asks the notification relay to deliver one text message.
// The rendered text travels sealed; brokers never hold the code in clear.
type SMSDispatchMessage struct {
	PhoneNumber   string `json:"phoneNumber"`
	SealedMessage []byte `json:"sealedMessage"`
	Nonce         []byte `json:"nonce"`
	RequestedAt   int64  `json:"requestedAt"`
}

// SMSDispatchScope binds a sealed message to its recipient and request time.
func SMSDispatchScope(phone string, requestedAt int64) aead.Scope {
	return aead.Scope{RecordID: requestedAt, Phone: phone, Purpose: SMSDispatchDestination}
}
