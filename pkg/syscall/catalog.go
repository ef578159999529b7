// Package syscall implements the host-service catalog invoked from
// bytecode via the VM's syscall trap: memory ops, stream I/O, time,
// windowing, audio, and hashing. A numeric-indexed dispatch table closes
// over a shared invocation context, addressed by small integer const_idx
// values rather than name hashes.
package syscall

// ArgType names a syscall argument's declared width/signedness, used only
// for documentation here; the interpreter pops full 64-bit Values and each
// host function narrows per its own signature.
type ArgType string

const (
	ArgU8   ArgType = "u8"
	ArgU16  ArgType = "u16"
	ArgU32  ArgType = "u32"
	ArgU64  ArgType = "u64"
	ArgI64  ArgType = "i64"
	ArgF32  ArgType = "f32"
	ArgPtr  ArgType = "ptr"
)

// Subsystem groups catalog entries: vm, io, time, window, audio, fs, net.
// fs and net are reserved namespaces with no operations yet.
type Subsystem string

const (
	SubsystemVM     Subsystem = "vm"
	SubsystemIO     Subsystem = "io"
	SubsystemTime   Subsystem = "time"
	SubsystemWindow Subsystem = "window"
	SubsystemAudio  Subsystem = "audio"
	SubsystemFS     Subsystem = "fs"
	SubsystemNet    Subsystem = "net"
)

// CatalogEntry is one numeric-indexed record of the syscall table.
type CatalogEntry struct {
	Idx        uint16
	Name       string
	Args       []ArgType
	Ret        ArgType // "" if no return value
	Permission Permission
	Subsystem  Subsystem
}

// Catalog is the authoritative numeric table: the core host-service
// indices 0-20, extended with hashing and state-persistence indices
// 21-24. New entries append; existing indices never change meaning.
var Catalog = []CatalogEntry{
	{0, "time_current_ms", nil, ArgU64, PermTimeGetTime, SubsystemTime},
	{1, "window_create", []ArgType{ArgU32, ArgU32, ArgPtr, ArgU64}, ArgU32, PermWindowDisplay, SubsystemWindow},
	{2, "time_delay_cb", []ArgType{ArgU64, ArgPtr}, "", PermDefaultAllowed, SubsystemTime},
	{3, "memcpy", []ArgType{ArgPtr, ArgPtr, ArgU64}, "", PermDefaultAllowed, SubsystemVM},
	{4, "memset", []ArgType{ArgPtr, ArgU8, ArgU64}, "", PermDefaultAllowed, SubsystemVM},
	{5, "print_i64", []ArgType{ArgI64}, "", PermDefaultAllowed, SubsystemIO},
	{6, "print_str", []ArgType{ArgPtr}, "", PermDefaultAllowed, SubsystemIO},
	{7, "print_endl", nil, "", PermDefaultAllowed, SubsystemIO},
	{8, "read_i64", nil, ArgI64, PermDefaultAllowed, SubsystemIO},
	{9, "window_on_keydown", []ArgType{ArgU32, ArgPtr}, "", PermWindowDisplay, SubsystemWindow},
	{10, "window_draw_frame", []ArgType{ArgU32, ArgPtr}, "", PermWindowDisplay, SubsystemWindow},
	{11, "window_on_mousemove", []ArgType{ArgU32, ArgPtr}, "", PermWindowDisplay, SubsystemWindow},
	{12, "window_on_mousedown", []ArgType{ArgU32, ArgPtr}, "", PermWindowDisplay, SubsystemWindow},
	{13, "window_on_mouseup", []ArgType{ArgU32, ArgPtr}, "", PermWindowDisplay, SubsystemWindow},
	{14, "vm_heap_size", nil, ArgU64, PermDefaultAllowed, SubsystemVM},
	{15, "window_on_keyup", []ArgType{ArgU32, ArgPtr}, "", PermWindowDisplay, SubsystemWindow},
	{16, "memset32", []ArgType{ArgPtr, ArgU32, ArgU64}, "", PermDefaultAllowed, SubsystemVM},
	{17, "vm_resize_heap", []ArgType{ArgU64}, ArgU8, PermDefaultAllowed, SubsystemVM},
	{18, "audio_open_output", []ArgType{ArgU32, ArgU16, ArgU16, ArgPtr}, ArgU32, PermAudioOutput, SubsystemAudio},
	{19, "window_on_textinput", []ArgType{ArgU32, ArgPtr}, "", PermWindowDisplay, SubsystemWindow},
	{20, "print_f32", []ArgType{ArgF32}, "", PermDefaultAllowed, SubsystemIO},

	{21, "hash_blake3", []ArgType{ArgPtr, ArgU64, ArgPtr}, "", PermDefaultAllowed, SubsystemIO},
	{22, "hash_keccak256", []ArgType{ArgPtr, ArgU64, ArgPtr}, "", PermDefaultAllowed, SubsystemIO},
	{23, "vm_save_state", []ArgType{ArgPtr}, ArgU8, PermDefaultAllowed, SubsystemVM},
	{24, "vm_load_state", []ArgType{ArgPtr}, ArgU8, PermDefaultAllowed, SubsystemVM},
}

// ByIdx indexes Catalog for O(1) lookup.
var ByIdx = func() map[uint16]CatalogEntry {
	m := make(map[uint16]CatalogEntry, len(Catalog))
	for _, e := range Catalog {
		m[e.Idx] = e
	}
	return m
}()

// Key syscall constants.
const (
	AudioFormatI16 = 0

	KeyBackspace = 8
	KeyTab       = 9
	KeyReturn    = 10
	KeyEscape    = 27
	KeySpace     = 32
	KeyLeft      = 16001
	KeyRight     = 16002
	KeyUp        = 16003
	KeyDown      = 16004
	KeyShift     = 16005
)
