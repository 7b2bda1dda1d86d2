package kart

import "errors"

// Kind groups error codes so hosts can map them to a response class.
type Kind string

const (
	KindAuthorization         Kind = "authorization"
	KindSignerNotRegistered   Kind = "signer_not_registered"
	KindSignatureFormat       Kind = "signature_format"
	KindSignatureVerification Kind = "signature_verification"
	KindInsufficientPayment   Kind = "insufficient_payment"
	KindDuplicateToken        Kind = "duplicate_token"
	KindKartLocked            Kind = "kart_locked"
	KindEquip                 Kind = "equip"
	KindCodec                 Kind = "codec"
	KindNoLastBattle          Kind = "no_last_battle"
	KindNotFound              Kind = "not_found"
	KindInvalidArgument       Kind = "invalid_argument"
)

// Error is a call abort. Code is the stable identifier surfaced to clients.
type Error struct {
	Kind Kind
	Code string
}

func (e *Error) Error() string {
	return e.Code
}

// Is matches any *Error with the same code so wrapped aborts still compare
// equal to the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newError(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

var (
	ErrNotTokenOwner = newError(KindAuthorization, "Caller must be the token owner.")
	ErrNotAdmin      = newError(KindAuthorization, "Caller must be relative of contract owner")

	ErrSignerNotRegistered   = newError(KindSignerNotRegistered, "error_pubkey_is_not_signer")
	ErrSignatureMalformed    = newError(KindSignatureFormat, "error_signature_malformed")
	ErrSignatureVerification = newError(KindSignatureVerification, "error_signature_verification_failed")

	ErrMintPaymentTooLow    = newError(KindInsufficientPayment, "error_mint_payment_too_low")
	ErrUpgradePaymentTooLow = newError(KindInsufficientPayment, "error_upgrade_payment_too_low")

	ErrDuplicateToken = newError(KindDuplicateToken, "token_id must be unique")
	ErrKartLocked     = newError(KindKartLocked, "error_cannot_upgrade_while_kart_is_locked")
	ErrCodec          = newError(KindCodec, "error_codec_invalid_config")
	ErrNoLastBattle   = newError(KindNoLastBattle, "error_no_last_battle")
	ErrTokenNotFound  = newError(KindNotFound, "No token")
	ErrSameOwner      = newError(KindInvalidArgument, "Current and next owner must differ")
	ErrNoReceiver     = newError(KindInvalidArgument, "receiver_id is required")
	ErrNoTokenID      = newError(KindInvalidArgument, "token_id is required")
	ErrNotOneYocto    = newError(KindInvalidArgument, "Requires attached deposit of exactly 1 yoctoNEAR")

	ErrFrontIndexTooHigh     = newError(KindEquip, "error_front_weapon_index_too_high")
	ErrTransportIndexTooHigh = newError(KindEquip, "error_transport_index_too_high")
	ErrSkinIndexTooHigh      = newError(KindEquip, "error_skin_index_too_high")
	ErrShieldLeftTooHigh     = newError(KindEquip, "error_shield_left_index_too_high")
	ErrShieldRightTooHigh    = newError(KindEquip, "error_shield_right_index_too_high")
	ErrWeaponLeftTooHigh     = newError(KindEquip, "error_weapon_left_index_too_high")
	ErrWeaponRightTooHigh    = newError(KindEquip, "error_weapon_right_index_too_high")
	ErrLevelTooLowFront      = newError(KindEquip, "error_level_not_high_enough_to_equip_front_weapon")
	ErrLevelTooLowLeft       = newError(KindEquip, "error_level_not_high_enough_to_equip_left_weapon")
	ErrLevelTooLowRight      = newError(KindEquip, "error_level_not_high_enough_to_equip_right_weapon")
	ErrLevelTooLowTransport  = newError(KindEquip, "error_level_not_high_enough_to_use_transport")
	ErrLevelTooLowSkin       = newError(KindEquip, "error_level_not_high_enough_to_use_skin")
	ErrDecalNotUnlocked      = newError(KindEquip, "error_decal_front_is_not_unlocked")
)

// KindOf reports the abort kind of err, or "" when err is not an abort.
func KindOf(err error) Kind {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return ""
}
