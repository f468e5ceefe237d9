package domain

// Имена таблиц, по которым рассылаются уведомления о вставках.
const (
	TableMessages = "messages"
	TablePosts    = "posts"
)

// ChangeEvent — уведомление о вставке записи. Транспорт несёт только сырые
// поля строки; денормализованные поля автора дочитываются отдельным запросом.
type ChangeEvent struct {
	Table    string `json:"table"`
	RecordID string `json:"record_id"`
	Scope    string `json:"scope,omitempty"`
}

// Topic строит имя топика для таблицы и скоупа. Пустой скоуп означает
// подписку на все вставки таблицы (лента).
func Topic(table, scope string) string {
	if scope == "" {
		return "changes:" + table
	}
	return "changes:" + table + ":" + scope
}
