package notify

// Publisher emits typed domain events through a hub
type Publisher struct {
	hub *Hub
}

// NewPublisher wraps a hub
func NewPublisher(hub *Hub) *Publisher {
	return &Publisher{hub: hub}
}

// Created announces a newly created entity in the given domain
func (p *Publisher) Created(domain string, id uint) {
	p.hub.Broadcast(Event{Type: domain, Event: "created", ID: id})
}

// Status announces a status change for an entity in the given domain
func (p *Publisher) Status(domain string, id uint, status string) {
	p.hub.Broadcast(Event{Type: domain, Event: "status", ID: id, Status: status})
}

// KYCStatus announces a verification status change
func (p *Publisher) KYCStatus(kycID, userID uint, status string) {
	p.hub.Broadcast(Event{Type: "kyc", Event: "status", KycID: kycID, UserID: userID, Status: status})
}
