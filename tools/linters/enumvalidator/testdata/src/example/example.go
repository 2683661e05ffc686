package example

type StageType string

const (
	StageFetch  StageType = "fetch-source"
	StageNotify StageType = "notify"
)

type NodeStatus string

const (
	NodeStatusReady NodeStatus = "ready"
)

type RequestStatus string

const (
	RequestStatusDone RequestStatus = "done"
)

type Node struct {
	Type   StageType
	Status NodeStatus
}

type Request struct {
	Status RequestStatus
	Topic  string
}

func bad() {
	n := &Node{}
	n.Type = "fetch-source" // want "enum field Type assigned string literal"
	n.Status = "ready"      // want "enum field Status assigned string literal"

	_ = Request{Status: "done"} // want "enum field Status assigned string literal"
	_ = &Node{Type: "notify"}   // want "enum field Type assigned string literal"
}

func good() {
	n := &Node{}
	n.Type = StageFetch // OK: using constant
	n.Status = NodeStatusReady

	_ = Request{Status: RequestStatusDone, Topic: "go books"} // OK: Topic is a plain string
}

func alsoGood() {
	// OK: Variable, not literal
	status := RequestStatusDone
	r := &Request{Status: status}
	_ = r
}
