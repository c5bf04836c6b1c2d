package model

// NoticeCategory はワンショット通知の種別。
type NoticeCategory string

const (
	NoticeSuccess NoticeCategory = "success"
	NoticeError   NoticeCategory = "error"
)

// Notice は次に描画されるページで1回だけ表示されるステータスメッセージ。
type Notice struct {
	Category NoticeCategory `json:"category"`
	Message  string         `json:"message"`
}

// SuccessNotice は成功通知を生成する。
func SuccessNotice(msg string) Notice {
	return Notice{Category: NoticeSuccess, Message: msg}
}

// ErrorNotice はエラー通知を生成する。
func ErrorNotice(msg string) Notice {
	return Notice{Category: NoticeError, Message: msg}
}
