package sr

// AuthorizeBody is the payload for authorize. Field names follow the
// controller-side configuration object.
type AuthorizeBody struct {
	ClientID    string   `json:"clientID"`
	RedirectURL string   `json:"redirectURL"`
	ShowDialog  *bool    `json:"showDialog"`
	Scopes      []string `json:"scopes"`
	AuthType    string   `json:"authType,omitempty"`
}

// ConnectBody is the payload for connect.
type ConnectBody struct {
	Token string `json:"token,omitempty"`
}

// ConnectWithoutAuthBody is the payload for connectWithoutAuth.
type ConnectWithoutAuthBody struct {
	Token       string `json:"token"`
	ClientID    string `json:"clientId"`
	RedirectURI string `json:"redirectUri"`
}

// URIBody carries a single content uri.
type URIBody struct {
	URI string `json:"uri"`
}

// ItemBody carries a content item map.
type ItemBody struct {
	Item map[string]any `json:"item"`
}

// ItemWithIndexBody is the payload for playItemWithIndex.
type ItemWithIndexBody struct {
	Item  map[string]any `json:"item"`
	Index int            `json:"index"`
}

// SeekBody is the payload for seek.
type SeekBody struct {
	PositionMS float64 `json:"ms"`
}

// ShuffleBody is the payload for setShuffling.
type ShuffleBody struct {
	Shuffling bool `json:"shuffling"`
}

// RepeatModeBody is the payload for setRepeatMode.
type RepeatModeBody struct {
	Mode int `json:"mode"`
}

// RecommendedOptions is the payload for getRecommendedContentItems.
type RecommendedOptions struct {
	Type string `json:"type"`
}

// ChildrenBody is the payload for getChildrenOfItem.
type ChildrenBody struct {
	Item    map[string]any  `json:"item"`
	Options ChildrenOptions `json:"options"`
}

// ChildrenOptions pages children results.
type ChildrenOptions struct {
	PerPage int `json:"perPage"`
	Offset  int `json:"offset"`
}

// RootContentBody is the payload for getRootContentItems.
type RootContentBody struct {
	Type string `json:"type"`
}

// ListenerBody is the payload for addListener and the observing commands.
type ListenerBody struct {
	EventName string `json:"eventName"`
}

// RemoveListenersBody is the payload for removeListeners.
type RemoveListenersBody struct {
	Count int `json:"count"`
}

// AuthorizationRequestedEvent carries the login url for a pending authorization.
type AuthorizationRequestedEvent struct {
	URL         string `json:"url"`
	RequestCode int    `json:"requestCode"`
}
