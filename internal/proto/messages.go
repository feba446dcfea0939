package proto

// HelloRequest / HelloResponse — handshake opening a session.

type HelloRequest struct {
	ClientInfo string
}

func (m HelloRequest) Encode() []byte {
	w := &writer{}
	w.putStr(m.ClientInfo)
	return w.buf
}

func DecodeHelloRequest(p []byte) (HelloRequest, error) {
	r := newReader(p)
	ci, err := r.getStr()
	return HelloRequest{ClientInfo: ci}, err
}

type HelloResponse struct {
	ProtocolVersion string
	Name            string
}

func (m HelloResponse) Encode() []byte {
	w := &writer{}
	w.putStr(m.ProtocolVersion)
	w.putStr(m.Name)
	return w.buf
}

func DecodeHelloResponse(p []byte) (HelloResponse, error) {
	r := newReader(p)
	pv, err := r.getStr()
	if err != nil {
		return HelloResponse{}, err
	}
	name, err := r.getStr()
	return HelloResponse{ProtocolVersion: pv, Name: name}, err
}

// AuthRequest / AuthResponse — authentication is a no-op success.

type AuthRequest struct {
	Password string
}

func (m AuthRequest) Encode() []byte {
	w := &writer{}
	w.putStr(m.Password)
	return w.buf
}

func DecodeAuthRequest(p []byte) (AuthRequest, error) {
	r := newReader(p)
	pw, err := r.getStr()
	return AuthRequest{Password: pw}, err
}

type AuthResponse struct {
	InvalidPassword bool
}

func (m AuthResponse) Encode() []byte {
	w := &writer{}
	w.putBool(m.InvalidPassword)
	return w.buf
}

func DecodeAuthResponse(p []byte) (AuthResponse, error) {
	r := newReader(p)
	b, err := r.getBool()
	return AuthResponse{InvalidPassword: b}, err
}

// DisconnectRequest / DisconnectResponse

type DisconnectRequest struct{}

func (DisconnectRequest) Encode() []byte { return nil }

func DecodeDisconnectRequest([]byte) (DisconnectRequest, error) { return DisconnectRequest{}, nil }

type DisconnectResponse struct{}

func (DisconnectResponse) Encode() []byte { return nil }

func DecodeDisconnectResponse([]byte) (DisconnectResponse, error) { return DisconnectResponse{}, nil }

// PingRequest / PingResponse — answered inline, no state transition.

type PingRequest struct{}

func (PingRequest) Encode() []byte { return nil }

func DecodePingRequest([]byte) (PingRequest, error) { return PingRequest{}, nil }

type PingResponse struct{}

func (PingResponse) Encode() []byte { return nil }

func DecodePingResponse([]byte) (PingResponse, error) { return PingResponse{}, nil }

// DeviceInfoRequest / DeviceInfoResponse

type DeviceInfoRequest struct{}

func (DeviceInfoRequest) Encode() []byte { return nil }

func DecodeDeviceInfoRequest([]byte) (DeviceInfoRequest, error) { return DeviceInfoRequest{}, nil }

type DeviceInfoResponse struct {
	Name              string
	MacAddress        string
	VoiceAssistant    bool
	APIAudio          bool
	Announce          bool
	StartConversation bool
	Timers            bool
}

func (m DeviceInfoResponse) Encode() []byte {
	w := &writer{}
	w.putStr(m.Name)
	w.putStr(m.MacAddress)
	w.putBool(m.VoiceAssistant)
	w.putBool(m.APIAudio)
	w.putBool(m.Announce)
	w.putBool(m.StartConversation)
	w.putBool(m.Timers)
	return w.buf
}

func DecodeDeviceInfoResponse(p []byte) (DeviceInfoResponse, error) {
	r := newReader(p)
	var m DeviceInfoResponse
	var err error
	if m.Name, err = r.getStr(); err != nil {
		return m, err
	}
	if m.MacAddress, err = r.getStr(); err != nil {
		return m, err
	}
	if m.VoiceAssistant, err = r.getBool(); err != nil {
		return m, err
	}
	if m.APIAudio, err = r.getBool(); err != nil {
		return m, err
	}
	if m.Announce, err = r.getBool(); err != nil {
		return m, err
	}
	if m.StartConversation, err = r.getBool(); err != nil {
		return m, err
	}
	m.Timers, err = r.getBool()
	return m, err
}

// ListEntitiesRequest / ListEntitiesDoneResponse

type ListEntitiesRequest struct{}

func (ListEntitiesRequest) Encode() []byte { return nil }

func DecodeListEntitiesRequest([]byte) (ListEntitiesRequest, error) { return ListEntitiesRequest{}, nil }

type ListEntitiesDoneResponse struct{}

func (ListEntitiesDoneResponse) Encode() []byte { return nil }

func DecodeListEntitiesDoneResponse([]byte) (ListEntitiesDoneResponse, error) {
	return ListEntitiesDoneResponse{}, nil
}

// Media player entity.

type ListEntitiesMediaPlayerResponse struct {
	ObjectID string
	Key      uint32
	Name     string
}

func (m ListEntitiesMediaPlayerResponse) Encode() []byte {
	w := &writer{}
	w.putStr(m.ObjectID)
	w.putU32(m.Key)
	w.putStr(m.Name)
	return w.buf
}

func DecodeListEntitiesMediaPlayerResponse(p []byte) (ListEntitiesMediaPlayerResponse, error) {
	r := newReader(p)
	var m ListEntitiesMediaPlayerResponse
	var err error
	if m.ObjectID, err = r.getStr(); err != nil {
		return m, err
	}
	if m.Key, err = r.getU32(); err != nil {
		return m, err
	}
	m.Name, err = r.getStr()
	return m, err
}

type MediaPlayerStateResponse struct {
	Key    uint32
	State  uint32 // domain.PlayerState
	Volume float32
	Muted  bool
}

func (m MediaPlayerStateResponse) Encode() []byte {
	w := &writer{}
	w.putU32(m.Key)
	w.putU32(m.State)
	w.putF32(m.Volume)
	w.putBool(m.Muted)
	return w.buf
}

func DecodeMediaPlayerStateResponse(p []byte) (MediaPlayerStateResponse, error) {
	r := newReader(p)
	var m MediaPlayerStateResponse
	var err error
	if m.Key, err = r.getU32(); err != nil {
		return m, err
	}
	if m.State, err = r.getU32(); err != nil {
		return m, err
	}
	if m.Volume, err = r.getF32(); err != nil {
		return m, err
	}
	m.Muted, err = r.getBool()
	return m, err
}

// MediaPlayerCommand is the subset of media commands the satellite
// accepts: play (optionally "announcement"), pause, resume, set
// volume.
type MediaPlayerCommand uint32

const (
	MediaCommandPlay MediaPlayerCommand = iota
	MediaCommandPause
	MediaCommandResume
	MediaCommandSetVolume
)

type MediaPlayerCommandRequest struct {
	Key          uint32
	Command      MediaPlayerCommand
	MediaURL     string
	Announcement bool
	Volume       float32
}

func (m MediaPlayerCommandRequest) Encode() []byte {
	w := &writer{}
	w.putU32(m.Key)
	w.putU32(uint32(m.Command))
	w.putStr(m.MediaURL)
	w.putBool(m.Announcement)
	w.putF32(m.Volume)
	return w.buf
}

func DecodeMediaPlayerCommandRequest(p []byte) (MediaPlayerCommandRequest, error) {
	r := newReader(p)
	var m MediaPlayerCommandRequest
	var err error
	if m.Key, err = r.getU32(); err != nil {
		return m, err
	}
	var cmd uint32
	if cmd, err = r.getU32(); err != nil {
		return m, err
	}
	m.Command = MediaPlayerCommand(cmd)
	if m.MediaURL, err = r.getStr(); err != nil {
		return m, err
	}
	if m.Announcement, err = r.getBool(); err != nil {
		return m, err
	}
	m.Volume, err = r.getF32()
	return m, err
}

// Switch entity.

type ListEntitiesSwitchResponse struct {
	ObjectID string
	Key      uint32
	Name     string
}

func (m ListEntitiesSwitchResponse) Encode() []byte {
	w := &writer{}
	w.putStr(m.ObjectID)
	w.putU32(m.Key)
	w.putStr(m.Name)
	return w.buf
}

func DecodeListEntitiesSwitchResponse(p []byte) (ListEntitiesSwitchResponse, error) {
	r := newReader(p)
	var m ListEntitiesSwitchResponse
	var err error
	if m.ObjectID, err = r.getStr(); err != nil {
		return m, err
	}
	if m.Key, err = r.getU32(); err != nil {
		return m, err
	}
	m.Name, err = r.getStr()
	return m, err
}

type SwitchStateResponse struct {
	Key   uint32
	State bool
}

func (m SwitchStateResponse) Encode() []byte {
	w := &writer{}
	w.putU32(m.Key)
	w.putBool(m.State)
	return w.buf
}

func DecodeSwitchStateResponse(p []byte) (SwitchStateResponse, error) {
	r := newReader(p)
	var m SwitchStateResponse
	var err error
	if m.Key, err = r.getU32(); err != nil {
		return m, err
	}
	m.State, err = r.getBool()
	return m, err
}

type SwitchCommandRequest struct {
	Key   uint32
	State bool
}

func (m SwitchCommandRequest) Encode() []byte {
	w := &writer{}
	w.putU32(m.Key)
	w.putBool(m.State)
	return w.buf
}

func DecodeSwitchCommandRequest(p []byte) (SwitchCommandRequest, error) {
	r := newReader(p)
	var m SwitchCommandRequest
	var err error
	if m.Key, err = r.getU32(); err != nil {
		return m, err
	}
	m.State, err = r.getBool()
	return m, err
}

// Voice-pipeline lifecycle.

type VoiceAssistantRequest struct {
	Start          bool
	WakeWordPhrase string
}

func (m VoiceAssistantRequest) Encode() []byte {
	w := &writer{}
	w.putBool(m.Start)
	w.putStr(m.WakeWordPhrase)
	return w.buf
}

func DecodeVoiceAssistantRequest(p []byte) (VoiceAssistantRequest, error) {
	r := newReader(p)
	var m VoiceAssistantRequest
	var err error
	if m.Start, err = r.getBool(); err != nil {
		return m, err
	}
	m.WakeWordPhrase, err = r.getStr()
	return m, err
}

type VoiceAssistantAudio struct {
	Data []byte
	End  bool
}

func (m VoiceAssistantAudio) Encode() []byte {
	w := &writer{}
	w.putBytes(m.Data)
	w.putBool(m.End)
	return w.buf
}

func DecodeVoiceAssistantAudio(p []byte) (VoiceAssistantAudio, error) {
	r := newReader(p)
	var m VoiceAssistantAudio
	var err error
	if m.Data, err = r.getBytes(); err != nil {
		return m, err
	}
	m.End, err = r.getBool()
	return m, err
}

// VAEventType enumerates the hub event types the satellite reacts to.
type VAEventType uint32

const (
	VAEventRunStart VAEventType = iota
	VAEventSTTVadEnd
	VAEventSTTEnd
	VAEventIntentProgress
	VAEventIntentEnd
	VAEventTTSEnd
	VAEventRunEnd
	VAEventError
)

type VoiceAssistantEventResponse struct {
	Type                 VAEventType
	TTSURL               string
	StartStreamingHint   bool // carried on IntentProgress
	ContinueConversation bool // carried on IntentEnd
}

func (m VoiceAssistantEventResponse) Encode() []byte {
	w := &writer{}
	w.putU32(uint32(m.Type))
	w.putStr(m.TTSURL)
	w.putBool(m.StartStreamingHint)
	w.putBool(m.ContinueConversation)
	return w.buf
}

func DecodeVoiceAssistantEventResponse(p []byte) (VoiceAssistantEventResponse, error) {
	r := newReader(p)
	var m VoiceAssistantEventResponse
	var err error
	var t uint32
	if t, err = r.getU32(); err != nil {
		return m, err
	}
	m.Type = VAEventType(t)
	if m.TTSURL, err = r.getStr(); err != nil {
		return m, err
	}
	if m.StartStreamingHint, err = r.getBool(); err != nil {
		return m, err
	}
	m.ContinueConversation, err = r.getBool()
	return m, err
}

type VoiceAssistantAnnounceRequest struct {
	PreannounceMediaID string
	MediaID            string
	StartConversation  bool
}

func (m VoiceAssistantAnnounceRequest) Encode() []byte {
	w := &writer{}
	w.putStr(m.PreannounceMediaID)
	w.putStr(m.MediaID)
	w.putBool(m.StartConversation)
	return w.buf
}

func DecodeVoiceAssistantAnnounceRequest(p []byte) (VoiceAssistantAnnounceRequest, error) {
	r := newReader(p)
	var m VoiceAssistantAnnounceRequest
	var err error
	if m.PreannounceMediaID, err = r.getStr(); err != nil {
		return m, err
	}
	if m.MediaID, err = r.getStr(); err != nil {
		return m, err
	}
	m.StartConversation, err = r.getBool()
	return m, err
}

type VoiceAssistantAnnounceFinished struct {
	Success bool
}

func (m VoiceAssistantAnnounceFinished) Encode() []byte {
	w := &writer{}
	w.putBool(m.Success)
	return w.buf
}

func DecodeVoiceAssistantAnnounceFinished(p []byte) (VoiceAssistantAnnounceFinished, error) {
	r := newReader(p)
	b, err := r.getBool()
	return VoiceAssistantAnnounceFinished{Success: b}, err
}

type VoiceAssistantTimerEventResponse struct {
	Finished bool
	TimerID  string
}

func (m VoiceAssistantTimerEventResponse) Encode() []byte {
	w := &writer{}
	w.putBool(m.Finished)
	w.putStr(m.TimerID)
	return w.buf
}

func DecodeVoiceAssistantTimerEventResponse(p []byte) (VoiceAssistantTimerEventResponse, error) {
	r := newReader(p)
	var m VoiceAssistantTimerEventResponse
	var err error
	if m.Finished, err = r.getBool(); err != nil {
		return m, err
	}
	m.TimerID, err = r.getStr()
	return m, err
}

type VoiceAssistantConfigurationRequest struct{}

func (VoiceAssistantConfigurationRequest) Encode() []byte { return nil }

func DecodeVoiceAssistantConfigurationRequest([]byte) (VoiceAssistantConfigurationRequest, error) {
	return VoiceAssistantConfigurationRequest{}, nil
}

type WakeWordInfo struct {
	ID               string
	WakeWord         string
	TrainedLanguages []string
}

type VoiceAssistantConfigurationResponse struct {
	AvailableWakeWords []WakeWordInfo
	ActiveWakeWordIDs  []string
	MaxActiveWakeWords uint32
}

func (m VoiceAssistantConfigurationResponse) Encode() []byte {
	w := &writer{}
	w.putUvarint(uint64(len(m.AvailableWakeWords)))
	for _, ww := range m.AvailableWakeWords {
		w.putStr(ww.ID)
		w.putStr(ww.WakeWord)
		w.putStrList(ww.TrainedLanguages)
	}
	w.putStrList(m.ActiveWakeWordIDs)
	w.putU32(m.MaxActiveWakeWords)
	return w.buf
}

func DecodeVoiceAssistantConfigurationResponse(p []byte) (VoiceAssistantConfigurationResponse, error) {
	r := newReader(p)
	var m VoiceAssistantConfigurationResponse
	n, err := r.getUvarint()
	if err != nil {
		return m, err
	}
	m.AvailableWakeWords = make([]WakeWordInfo, n)
	for i := range m.AvailableWakeWords {
		var ww WakeWordInfo
		if ww.ID, err = r.getStr(); err != nil {
			return m, err
		}
		if ww.WakeWord, err = r.getStr(); err != nil {
			return m, err
		}
		if ww.TrainedLanguages, err = r.getStrList(); err != nil {
			return m, err
		}
		m.AvailableWakeWords[i] = ww
	}
	if m.ActiveWakeWordIDs, err = r.getStrList(); err != nil {
		return m, err
	}
	m.MaxActiveWakeWords, err = r.getU32()
	return m, err
}

type VoiceAssistantSetConfiguration struct {
	ActiveWakeWordIDs []string
}

func (m VoiceAssistantSetConfiguration) Encode() []byte {
	w := &writer{}
	w.putStrList(m.ActiveWakeWordIDs)
	return w.buf
}

func DecodeVoiceAssistantSetConfiguration(p []byte) (VoiceAssistantSetConfiguration, error) {
	r := newReader(p)
	ids, err := r.getStrList()
	return VoiceAssistantSetConfiguration{ActiveWakeWordIDs: ids}, err
}
