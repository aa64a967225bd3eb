package notifications

// Phrases looks up localized log text by key. The keys are the ones used in
// language.json; values carry no placeholders, details go in log attributes.
type Phrases interface {
	String(key, fallback string) string
}

// Log text keys.
const (
	KeyGameNotRunning     = "log_game_not_running"
	KeyGameTimeRemaining  = "log_game_time_remaining"
	KeyGameStartedWaiting = "log_game_started_waiting"
	KeyAlreadyNotified    = "log_already_notified"
	KeySendingNow         = "log_messages_sending_now"
	KeyRunUntilNextCycle  = "log_run_until_next_cycle"
	KeyPlayerListError    = "log_player_list_error"
	KeyNoPlayersFound     = "log_no_players_found"
	KeyNoRolesFound       = "log_no_roles_found"
	KeyMessageInQueue     = "log_messages_in_queue"
	KeyMessagesSent       = "log_messages_sent_gather"
	KeyTimeFormatError    = "log_time_format_error"
	KeyClientClosed       = "log_client_session_closed"
)

func phrase(p Phrases, key, fallback string) string {
	if p == nil {
		return fallback
	}
	return p.String(key, fallback)
}
