package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ClientName      string            `json:"client_name"`
	Role            string            `json:"role,omitempty"`
	Capabilities    HelloCapabilities `json:"capabilities"`
}

type HelloCapabilities struct {
	MaxQueue int `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	Role            string         `json:"role"`
	ShopID          string         `json:"shop_id"`
	TickRateHz      int            `json:"tick_rate_hz"`
	Catalogs        CatalogDigests `json:"catalogs"`
	State           StateMsg       `json:"state"`
}

type CatalogDigests struct {
	ArchetypesDigest string `json:"archetypes_digest,omitempty"`
	DaysDigest       string `json:"days_digest,omitempty"`
	TuningDigest     string `json:"tuning_digest,omitempty"`
}

// CMD (client -> server)
type CmdMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	CmdID           string     `json:"cmd_id"`
	Cmd             string     `json:"cmd"`
	BodyID          string     `json:"body_id,omitempty"`
	Species         string     `json:"species,omitempty"`
	Limb            string     `json:"limb,omitempty"`
	Joint           string     `json:"joint,omitempty"`
	Precision       string     `json:"precision,omitempty"`
	Tool            string     `json:"tool,omitempty"`
	Hit             [3]float64 `json:"hit,omitempty"`
	OrderID         string     `json:"order_id,omitempty"`
	Day             int        `json:"day,omitempty"`
}

// ACK (server -> client)
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	Tick            uint64 `json:"tick"`
}

// STATE (server -> client): the read-only view UI collaborators render.
type StateMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	ShopID          string       `json:"shop_id"`
	Tick            uint64       `json:"tick"`
	Day             int          `json:"day"`
	Slots           []*OrderView `json:"slots"`
	Waiting         []OrderView  `json:"waiting"`
	Completed       []string     `json:"completed"`
	Expired         []string     `json:"expired"`
	Tray            []PartView   `json:"tray"`
	Bodies          []BodyView   `json:"bodies"`
	LastDeposit     *DepositView `json:"last_deposit,omitempty"`
	TotalScore      int          `json:"total_score"`
	Stats           StatsView    `json:"stats"`
}

type OrderView struct {
	ID          string     `json:"id"`
	Customer    string     `json:"customer"`
	Archetype   string     `json:"archetype"`
	Slot        int        `json:"slot"`
	State       string     `json:"state"`
	RemainingMs int64      `json:"remaining_ms"`
	TimeLimitMs int64      `json:"time_limit_ms"`
	Items       []ItemView `json:"items"`
}

type ItemView struct {
	Species    string `json:"species"`
	Part       string `json:"part"`
	Quantity   int    `json:"quantity"`
	Delivered  int    `json:"delivered"`
	MinQuality string `json:"min_quality"`
}

type PartView struct {
	BodyID    string `json:"body_id"`
	Species   string `json:"species"`
	Segment   string `json:"segment"`
	Part      string `json:"part"`
	Quality   string `json:"quality"`
	Precision string `json:"precision"`
	Tool      string `json:"tool"`
	Joint     string `json:"joint"`
}

type BodyView struct {
	BodyID    string `json:"body_id"`
	Species   string `json:"species"`
	Remaining int    `json:"remaining"`
}

type DepositView struct {
	Tick        uint64           `json:"tick"`
	Matched     int              `json:"matched"`
	Unmatched   int              `json:"unmatched"`
	Score       int              `json:"score"`
	Allocations []AllocationView `json:"allocations"`
	Completed   []string         `json:"completed"`
}

type AllocationView struct {
	Slot    int    `json:"slot"`
	OrderID string `json:"order_id"`
	Item    int    `json:"item"`
	Segment string `json:"segment"`
	Score   int    `json:"score"`
}

type StatsView struct {
	Cuts            int `json:"cuts"`
	PerfectCuts     int `json:"perfect_cuts"`
	MissCuts        int `json:"miss_cuts"`
	DroppedCuts     int `json:"dropped_cuts"`
	PartsSevered    int `json:"parts_severed"`
	PartsWasted     int `json:"parts_wasted"`
	OrdersCompleted int `json:"orders_completed"`
	OrdersExpired   int `json:"orders_expired"`
}
