package domain

// Conversation agent features.
const FeatureControl = "control"

// DeviceEntryTypeService marks a device that represents a remote service.
const DeviceEntryTypeService = "service"

// DeviceIdentifier is a (domain, id) pair identifying a device.
type DeviceIdentifier struct {
	Domain string `json:"domain"`
	ID     string `json:"id"`
}

// DeviceInfo describes the device an agent entity is attached to.
type DeviceInfo struct {
	Identifiers  []DeviceIdentifier `json:"identifiers"`
	Name         string             `json:"name"`
	Manufacturer string             `json:"manufacturer"`
	Model        string             `json:"model"`
	EntryType    string             `json:"entry_type"`
}

// NewDeviceInfo returns the fixed device descriptor for an entry.
func NewDeviceInfo(entryID string) DeviceInfo {
	return DeviceInfo{
		Identifiers:  []DeviceIdentifier{{Domain: Domain, ID: entryID}},
		Name:         "Home Mind",
		Manufacturer: "Home Mind",
		Model:        "AI Assistant",
		EntryType:    DeviceEntryTypeService,
	}
}

// AgentInfo is the registry view of one conversation agent entity.
type AgentInfo struct {
	UniqueID           string     `json:"unique_id"`
	EntryID            string     `json:"entry_id"`
	Name               string     `json:"name"`
	Device             DeviceInfo `json:"device"`
	SupportedFeatures  []string   `json:"supported_features"`
	SupportedLanguages string     `json:"supported_languages"`
}
