package internal

// Version is the jembatan release
const Version = "0.4.0"
