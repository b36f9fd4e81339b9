package redisx

const ns = "fournil:v1"

func ChannelWorkshopsChanged() string {
	return ns + ":workshops:changed"
}
